package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"mediatree/internal/api"
)

func formatMillis(ms int64) string {
	if ms <= 0 {
		return ""
	}
	d := time.Duration(ms) * time.Millisecond
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func formatSize(size int64) string {
	if size <= 0 {
		return ""
	}
	return humanize.IBytes(uint64(size))
}

// variantSummary describes what distinguishes a derived node.
func variantSummary(n api.Node) string {
	var parts []string
	if n.EngineName != "" {
		parts = append(parts, n.EngineName)
	}
	if n.Audio != nil {
		parts = append(parts, "audio: "+n.Audio.Label)
	}
	if n.Subtitle != nil {
		parts = append(parts, "subs: "+n.Subtitle.Label)
	}
	if n.Split != nil {
		end := "end"
		if n.Split.EndMillis >= 0 {
			end = formatMillis(n.Split.EndMillis)
		}
		start := formatMillis(n.Split.StartMillis)
		if start == "" {
			start = "0:00"
		}
		parts = append(parts, start+"-"+end)
	}
	return strings.Join(parts, ", ")
}

func kindLabel(n api.Node) string {
	if n.Folder {
		return n.Kind + "/"
	}
	return n.Kind
}
