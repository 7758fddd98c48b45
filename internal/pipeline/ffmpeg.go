package pipeline

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"manualstudio/internal/jobs"
	"manualstudio/internal/services"
)

// FFmpegProcessor shells out to ffmpeg/ffprobe for media work.
type FFmpegProcessor struct {
	// binDir optionally prefixes the tool names, for sandboxed installs.
	binDir string
}

// NewFFmpegProcessor builds a processor using tools from binDir, or PATH
// when binDir is empty.
func NewFFmpegProcessor(binDir string) *FFmpegProcessor {
	return &FFmpegProcessor{binDir: binDir}
}

func (f *FFmpegProcessor) tool(name string) string {
	if f.binDir == "" {
		return name
	}
	return filepath.Join(f.binDir, name)
}

type probeOutput struct {
	Streams []struct {
		CodecType  string `json:"codec_type"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		RFrameRate string `json:"r_frame_rate"`
		Duration   string `json:"duration"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe reads duration, frame rate, and resolution via ffprobe.
func (f *FFmpegProcessor) Probe(ctx context.Context, videoPath string) (jobs.VideoMeta, error) {
	cmd := exec.CommandContext(ctx, f.tool("ffprobe"),
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		videoPath,
	)
	out, err := cmd.Output()
	if err != nil {
		return jobs.VideoMeta{}, wrapFFmpeg("probe", videoPath, err)
	}

	var probed probeOutput
	if err := json.Unmarshal(out, &probed); err != nil {
		return jobs.VideoMeta{}, wrapFFmpeg("probe", "parse ffprobe output", err)
	}

	meta := jobs.VideoMeta{}
	for _, stream := range probed.Streams {
		if stream.CodecType != "video" {
			continue
		}
		meta.Resolution = fmt.Sprintf("%dx%d", stream.Width, stream.Height)
		meta.FPS = parseFrameRate(stream.RFrameRate)
		if meta.DurationSec == 0 {
			meta.DurationSec, _ = strconv.ParseFloat(stream.Duration, 64)
		}
		break
	}
	if meta.Resolution == "" {
		return jobs.VideoMeta{}, wrapFFmpeg("probe", "no video stream in "+videoPath, nil)
	}
	if d, err := strconv.ParseFloat(probed.Format.Duration, 64); err == nil && d > 0 {
		meta.DurationSec = d
	}
	return meta, nil
}

// ExtractAudio writes a 16 kHz mono WAV, the layout speech models expect.
func (f *FFmpegProcessor) ExtractAudio(ctx context.Context, videoPath, audioPath string) error {
	if err := os.MkdirAll(filepath.Dir(audioPath), 0o755); err != nil {
		return wrapFFmpeg("extract audio", audioPath, err)
	}
	cmd := exec.CommandContext(ctx, f.tool("ffmpeg"),
		"-y",
		"-i", videoPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		audioPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return wrapFFmpeg("extract audio", strings.TrimSpace(stderr.String()), err)
	}
	return nil
}

// DetectScenes runs ffmpeg's scene-change filter and parses the showinfo
// timestamps. Timestamp 0 is always included so the opening shot becomes a
// candidate frame.
func (f *FFmpegProcessor) DetectScenes(ctx context.Context, videoPath string) ([]float64, error) {
	cmd := exec.CommandContext(ctx, f.tool("ffmpeg"),
		"-i", videoPath,
		"-vf", "select='gt(scene,0.3)',showinfo",
		"-f", "null", "-",
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	// ffmpeg writes showinfo to stderr and exits 0 even with no matches.
	if err := cmd.Run(); err != nil {
		return nil, wrapFFmpeg("detect scenes", videoPath, err)
	}

	times := parseShowinfoTimes(&stderr)
	if len(times) == 0 || times[0] > 1.0 {
		times = append([]float64{0}, times...)
	}
	return times, nil
}

// ExtractFrame writes one JPEG frame at the given timestamp.
func (f *FFmpegProcessor) ExtractFrame(ctx context.Context, videoPath string, atSec float64, framePath string) error {
	if err := os.MkdirAll(filepath.Dir(framePath), 0o755); err != nil {
		return wrapFFmpeg("extract frame", framePath, err)
	}
	cmd := exec.CommandContext(ctx, f.tool("ffmpeg"),
		"-y",
		"-ss", strconv.FormatFloat(atSec, 'f', 3, 64),
		"-i", videoPath,
		"-vframes", "1",
		"-q:v", "2",
		framePath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return wrapFFmpeg("extract frame", strings.TrimSpace(stderr.String()), err)
	}
	return nil
}

func parseFrameRate(value string) float64 {
	num, den, found := strings.Cut(value, "/")
	if !found {
		if fps, err := strconv.ParseFloat(value, 64); err == nil {
			return fps
		}
		return 30
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 30
	}
	return n / d
}

func parseShowinfoTimes(output *bytes.Buffer) []float64 {
	var times []float64
	scanner := bufio.NewScanner(output)
	for scanner.Scan() {
		line := scanner.Text()
		idx := strings.Index(line, "pts_time:")
		if idx < 0 {
			continue
		}
		rest := line[idx+len("pts_time:"):]
		if end := strings.IndexByte(rest, ' '); end >= 0 {
			rest = rest[:end]
		}
		if t, err := strconv.ParseFloat(rest, 64); err == nil {
			times = append(times, t)
		}
	}
	sort.Float64s(times)
	return times
}

func wrapFFmpeg(operation, detail string, err error) error {
	wrapped := services.Wrap(services.ErrTransient, "ffmpeg", operation, detail, err)
	return services.WithCode(wrapped, services.CodeFFmpegFailed)
}
