package video

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"os/exec"
)

// FFmpegOpener decodes videos by piping raw RGB frames out of an
// ffmpeg child process. The container format (webm, mp4, avi, mov) is
// whatever ffmpeg can read.
type FFmpegOpener struct {
	FFmpegPath  string
	FFprobePath string
}

// NewFFmpegOpener creates an opener using the given binaries, falling
// back to the ones on PATH.
func NewFFmpegOpener(ffmpegPath, ffprobePath string) *FFmpegOpener {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &FFmpegOpener{FFmpegPath: ffmpegPath, FFprobePath: ffprobePath}
}

type probeOutput struct {
	Streams []struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"streams"`
}

// probe returns the pixel dimensions of the first video stream.
func (o *FFmpegOpener) probe(path string) (width, height int, err error) {
	cmd := exec.Command(o.FFprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "json",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		return 0, 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	var probed probeOutput
	if err := json.Unmarshal(out, &probed); err != nil {
		return 0, 0, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if len(probed.Streams) == 0 || probed.Streams[0].Width <= 0 || probed.Streams[0].Height <= 0 {
		return 0, 0, errors.New("no decodable video stream")
	}

	return probed.Streams[0].Width, probed.Streams[0].Height, nil
}

// Open probes the container and starts the decoder process. Fails
// before returning a Source if the file is missing or unreadable.
func (o *FFmpegOpener) Open(path string) (Source, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open video: %w", err)
	}

	width, height, err := o.probe(path)
	if err != nil {
		return nil, fmt.Errorf("open video: %w", err)
	}

	cmd := exec.Command(o.FFmpegPath,
		"-i", path,
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-v", "error",
		"pipe:1",
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("open video: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("open video: start ffmpeg: %w", err)
	}

	return &ffmpegSource{
		cmd:    cmd,
		reader: bufio.NewReaderSize(stdout, 1<<16),
		width:  width,
		height: height,
	}, nil
}

type ffmpegSource struct {
	cmd    *exec.Cmd
	reader *bufio.Reader
	width  int
	height int
	closed bool
}

// Next reads one raw RGB24 frame from the decoder pipe.
func (s *ffmpegSource) Next() (image.Image, error) {
	buf := make([]byte, s.width*s.height*3)
	if _, err := io.ReadFull(s.reader, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read frame: %w", err)
	}

	return &rgbFrame{pix: buf, width: s.width, height: s.height}, nil
}

// Close kills the decoder if it is still running and reaps the process.
func (s *ffmpegSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	// Wait also closes the stdout pipe. The error is expected after a
	// kill and carries no signal for the caller.
	_ = s.cmd.Wait()
	return nil
}

// rgbFrame is an image.Image view over a packed RGB24 buffer, avoiding
// a per-frame conversion copy.
type rgbFrame struct {
	pix    []byte
	width  int
	height int
}

func (f *rgbFrame) ColorModel() color.Model { return color.RGBAModel }

func (f *rgbFrame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.width, f.height)
}

func (f *rgbFrame) At(x, y int) color.Color {
	if x < 0 || y < 0 || x >= f.width || y >= f.height {
		return color.RGBA{}
	}
	i := (y*f.width + x) * 3
	return color.RGBA{R: f.pix[i], G: f.pix[i+1], B: f.pix[i+2], A: 0xff}
}

var _ Opener = (*FFmpegOpener)(nil)
