// Package ytdlp resuelve links de YouTube llamando al binario yt-dlp.
package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/jose-valero/dreamy-assistant-bot/internal/music"
)

var ErrNoAudio = errors.New("yt-dlp returned no playable url")

// runFunc ejecuta el binario y devuelve stdout; los tests lo reemplazan.
type runFunc func(ctx context.Context, bin string, args ...string) ([]byte, error)

type Client struct {
	bin string
	run runFunc
}

func New(bin string) *Client {
	if bin == "" {
		bin = "yt-dlp"
	}
	return &Client{bin: bin, run: execRun}
}

func execRun(ctx context.Context, bin string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > 300 {
			msg = msg[len(msg)-300:]
		}
		return nil, fmt.Errorf("%s %s: %w: %s", bin, strings.Join(args[:len(args)-1], " "), err, msg)
	}
	return stdout.Bytes(), nil
}

type videoDTO struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

type playlistDTO struct {
	Entries []struct {
		URL string `json:"url"`
		ID  string `json:"id"`
	} `json:"entries"`
}

// Extract implementa music.Extractor.
func (c *Client) Extract(ctx context.Context, ref string) (music.Stream, error) {
	out, err := c.run(ctx, c.bin, "-f", "bestaudio/best", "--no-playlist", "--no-warnings", "-j", ref)
	if err != nil {
		return music.Stream{}, err
	}
	var dto videoDTO
	if err := json.Unmarshal(out, &dto); err != nil {
		return music.Stream{}, fmt.Errorf("decode yt-dlp output: %w", err)
	}
	if dto.URL == "" {
		return music.Stream{}, ErrNoAudio
	}
	return music.Stream{URL: dto.URL, Title: dto.Title}, nil
}

// Expand implementa music.Resolver: lista plana de la playlist.
func (c *Client) Expand(ctx context.Context, playlistURL string) ([]string, error) {
	out, err := c.run(ctx, c.bin, "--flat-playlist", "--no-warnings", "-J", playlistURL)
	if err != nil {
		return nil, err
	}
	var dto playlistDTO
	if err := json.Unmarshal(out, &dto); err != nil {
		return nil, fmt.Errorf("decode yt-dlp playlist: %w", err)
	}
	urls := make([]string, 0, len(dto.Entries))
	for _, e := range dto.Entries {
		switch {
		case strings.HasPrefix(e.URL, "http"):
			urls = append(urls, e.URL)
		case e.ID != "":
			urls = append(urls, "https://www.youtube.com/watch?v="+e.ID)
		}
	}
	return urls, nil
}
