package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// UVX launches WhisperX without a managed Python environment.
const UVX = "uvx"

// Requirement names an external tool the pipeline shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status is the lookup outcome for one Requirement. Path holds the resolved
// location when the tool was found.
type Status struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Path        string `json:"path,omitempty"`
	Description string `json:"description,omitempty"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// Blocking reports whether a missing tool should fail a run.
func (s Status) Blocking() bool {
	return !s.Available && !s.Optional
}

// Check resolves a single requirement against PATH.
func Check(req Requirement) Status {
	status := Status{
		Name:        req.Name,
		Command:     strings.TrimSpace(req.Command),
		Description: strings.TrimSpace(req.Description),
		Optional:    req.Optional,
	}
	if status.Command == "" {
		status.Detail = "command not configured"
		return status
	}
	path, err := exec.LookPath(status.Command)
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", status.Command)
		return status
	}
	status.Path = path
	status.Available = true
	return status
}

// CheckBinaries resolves each requirement in order.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		results = append(results, Check(req))
	}
	return results
}

// Toolchain reports every tool a full run needs: ffmpeg, its paired
// ffprobe, uvx for WhisperX and yt-dlp. yt-dlp is optional because local
// files skip the download.
func Toolchain(ffmpeg, ytdlp string) []Status {
	statuses := []Status{Check(Requirement{
		Name:        "FFmpeg",
		Command:     ffmpeg,
		Description: "Extracts audio and muxes subtitles",
	})}
	statuses = append(statuses, ResolveFFprobe(ffmpeg))
	return append(statuses, CheckBinaries([]Requirement{
		{Name: "uvx", Command: UVX, Description: "Runs WhisperX transcription"},
		{Name: "yt-dlp", Command: ytdlp, Description: "Downloads remote videos", Optional: true},
	})...)
}

// CountBlocking returns how many statuses would fail a run.
func CountBlocking(statuses []Status) int {
	n := 0
	for _, status := range statuses {
		if status.Blocking() {
			n++
		}
	}
	return n
}
