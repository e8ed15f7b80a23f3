package api

import (
	"time"

	"mediatree/internal/media"
	"mediatree/internal/preflight"
	"mediatree/internal/resource"
	"mediatree/internal/scan"
)

// FromNode converts a tree node to its API representation.
func FromNode(n *resource.Node) Node {
	if n == nil {
		return Node{}
	}
	dto := Node{
		ID:             n.ID(),
		ParentID:       n.ParentID(),
		Kind:           n.Kind(),
		Name:           n.Name(),
		Folder:         n.IsFolder(),
		Discovered:     n.Discovered(),
		Invalid:        n.Invalid(),
		DurationMillis: n.Duration().Milliseconds(),
		LastModified:   formatTime(n.LastModified()),
	}
	if dto.Folder {
		dto.ChildCount = len(n.Children())
	} else {
		dto.Seekable = n.Seekable()
	}
	if md := n.Metadata(); md != nil {
		dto.MimeType = md.MimeType
		dto.Size = md.Size
	}
	if engine := n.Engine(); engine != nil {
		dto.Engine = engine.ID()
		dto.EngineName = engine.Name()
	}
	if audio := n.AudioTrack(); audio != nil {
		t := fromAudio(audio)
		dto.Audio = &t
	}
	if sub := n.SubtitleTrack(); sub != nil {
		t := fromSubtitle(sub)
		dto.Subtitle = &t
	}
	if r, ok := n.SplitRange(); ok {
		end := int64(-1)
		if !r.IsOpen() {
			end = r.End.Milliseconds()
		}
		dto.Split = &Split{StartMillis: r.Start.Milliseconds(), EndMillis: end}
	}
	return dto
}

// FromNodeDetail converts a node and its resolved metadata.
func FromNodeDetail(n *resource.Node) NodeDetail {
	detail := NodeDetail{Node: FromNode(n)}
	if n == nil {
		return detail
	}
	md := n.Metadata()
	if md == nil {
		return detail
	}
	detail.Container = md.Container
	detail.VideoCodec = md.VideoCodec
	detail.Resolution = md.Resolution()
	detail.Bitrate = md.Bitrate
	detail.Title = md.Title
	detail.Artist = md.Artist
	detail.Album = md.Album
	for i := range md.AudioTracks {
		detail.AudioTracks = append(detail.AudioTracks, fromAudio(&md.AudioTracks[i]))
	}
	for i := range md.SubtitleTracks {
		detail.SubtitleTracks = append(detail.SubtitleTracks, fromSubtitle(&md.SubtitleTracks[i]))
	}
	return detail
}

// FromChildren converts a container's children in display order.
func FromChildren(children []*resource.Node) []Node {
	out := make([]Node, 0, len(children))
	for _, child := range children {
		out = append(out, FromNode(child))
	}
	return out
}

// FromScanStatus converts the scan manager status.
func FromScanStatus(status scan.Status) ScanStatus {
	dto := ScanStatus{
		Running:   status.Running,
		ScanID:    status.ScanID,
		StartedAt: formatTime(status.StartedAt),
		Stopping:  status.Stopping,
	}
	if status.Last != nil {
		last := FromScanResult(*status.Last)
		dto.Last = &last
	}
	return dto
}

// FromScanResult converts one finished scan.
func FromScanResult(result scan.Result) ScanResult {
	return ScanResult{
		ScanID:         result.ScanID,
		StartedAt:      formatTime(result.StartedAt),
		FinishedAt:     formatTime(result.FinishedAt),
		Containers:     result.Stats.Containers,
		Leaves:         result.Stats.Leaves,
		Failures:       result.Stats.Failures,
		DurationMillis: result.Stats.Duration.Milliseconds(),
		Canceled:       result.Canceled,
		Error:          result.Error,
	}
}

// FromChecks converts preflight results preserving order.
func FromChecks(results []preflight.Result) []CheckResult {
	out := make([]CheckResult, 0, len(results))
	for _, r := range results {
		out = append(out, CheckResult{Name: r.Name, Passed: r.Passed, Optional: r.Optional, Detail: r.Detail})
	}
	return out
}

// FromDisc converts an optical drive probe.
func FromDisc(probe preflight.DiscProbe) *DiscStatus {
	return &DiscStatus{Detected: probe.Detected, Device: probe.Device, Label: probe.Label, Type: probe.Type}
}

func fromAudio(a *media.AudioTrack) Track {
	return Track{ID: a.ID, Label: a.Label(), Lang: a.Lang, Codec: a.Codec}
}

func fromSubtitle(s *media.SubtitleTrack) Track {
	return Track{ID: s.ID, Label: s.Label(), Lang: s.Lang, Codec: s.Format, External: s.External}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
