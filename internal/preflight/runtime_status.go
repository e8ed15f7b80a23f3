package preflight

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DiscProbe reports the current optical-disc snapshot.
type DiscProbe struct {
	Detected bool   `json:"detected"`
	Device   string `json:"device"`
	Label    string `json:"label,omitempty"`
	Type     string `json:"type,omitempty"`
}

// ProbeDisc asks lsblk for the label and filesystem of the disc in device.
func ProbeDisc(ctx context.Context, device string) DiscProbe {
	device = strings.TrimSpace(device)
	if device == "" {
		return DiscProbe{}
	}
	if _, err := exec.LookPath("lsblk"); err != nil {
		return DiscProbe{Device: device}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	output, err := exec.CommandContext(ctx, "lsblk", "-no", "LABEL,FSTYPE", device).Output()
	if err != nil {
		return DiscProbe{Device: device}
	}
	return parseLsblk(device, string(output))
}

func parseLsblk(device, output string) DiscProbe {
	fields := strings.Fields(strings.TrimSpace(output))
	if len(fields) == 0 {
		return DiscProbe{Device: device}
	}
	label := "Unknown"
	fstype := ""
	switch len(fields) {
	case 1:
		fstype = fields[0]
	default:
		label = strings.Join(fields[:len(fields)-1], " ")
		fstype = fields[len(fields)-1]
	}
	return DiscProbe{
		Detected: true,
		Device:   device,
		Label:    label,
		Type:     classifyDiscType(fstype),
	}
}

func classifyDiscType(fstype string) string {
	switch strings.ToLower(strings.TrimSpace(fstype)) {
	case "udf":
		return "UDF"
	case "iso9660":
		return "ISO 9660"
	default:
		return "Unknown"
	}
}

// Detail renders a display-friendly summary for status output.
func (p DiscProbe) Detail() string {
	if !p.Detected {
		return "No disc detected"
	}
	return fmt.Sprintf("%s disc '%s' on %s", p.Type, p.Label, p.Device)
}
