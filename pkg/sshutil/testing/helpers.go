package testing

// Probe patterns matching the Linux shell pipelines fleetwatch runs.
const (
	CPUProbe    = `^top -bn1`
	MemoryProbe = `^free `
	DiskProbe   = `^df -h`
)

// LinuxHost holds the raw probe output a healthy Linux box would print.
type LinuxHost struct {
	CPU    string
	Memory string
	Disk   string
}

// HealthyHost is a small box: 12.5% CPU, half its 8GB used, one root disk.
var HealthyHost = LinuxHost{
	CPU:    "12.5\n",
	Memory: "8000000 4000000 4000000\n",
	Disk:   "/dev/sda1        50G   20G   28G  42% /\n",
}

// WithProbes scripts the three probe commands on client.
func WithProbes(client *MockClient, host LinuxHost) {
	client.SetCommandResponse(CPUProbe, CommandResponse{Stdout: host.CPU})
	client.SetCommandResponse(MemoryProbe, CommandResponse{Stdout: host.Memory})
	client.SetCommandResponse(DiskProbe, CommandResponse{Stdout: host.Disk})
}
