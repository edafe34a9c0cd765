// Command hemowatch runs a real-time capture session against a hemolens
// server, printing the rolling readout. Frames are read from a file or
// cycled from a directory; camera capture is out of scope.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"hemolens/internal/client"
	"hemolens/internal/config"
	"hemolens/internal/realtime"
)

func main() {
	cfg := config.Load()

	server := flag.String("server", cfg.ServerURL, "hemolens server base URL")
	frames := flag.String("frames", "", "image file, or directory of images to cycle through")
	period := flag.Duration("period", cfg.CapturePeriod, "capture tick period")
	timeout := flag.Duration("timeout", cfg.ClientTimeout, "per-frame submission timeout")
	flag.Parse()

	if *frames == "" {
		flag.Usage()
		os.Exit(2)
	}

	src, err := newFileSource(*frames)
	if err != nil {
		log.Fatalf("frame source: %v", err)
	}

	sub := client.New(*server, &http.Client{Timeout: *timeout})
	session := realtime.NewSession(src, sub, realtime.Options{
		Period:  *period,
		Timeout: *timeout,
	})

	ctx, cancel := context.WithCancel(context.Background())
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		cancel()
	}()

	go session.Run(ctx)

	ticker := time.NewTicker(*period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			fmt.Println()
			return
		case <-ticker.C:
			printDisplay(session.Display())
		}
	}
}

func printDisplay(d realtime.Display) {
	line := fmt.Sprintf("frames=%d accepted=%d rejected=%d", d.Frames, d.Accepted, d.Rejected)
	if len(d.History) > 0 {
		line += fmt.Sprintf(" avg=%.2f g/dL last=%s", d.Average, d.LastStatus)
	}
	if d.Degraded {
		line += " [connectivity degraded]"
	}
	fmt.Printf("\r%-80s", line)
}

// fileSource cycles over one or more image files.
type fileSource struct {
	mu    sync.Mutex
	paths []string
	next  int
}

func newFileSource(path string) (*fileSource, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return &fileSource{paths: []string{path}}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png", ".tif", ".tiff":
			paths = append(paths, filepath.Join(path, e.Name()))
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no images in %s", path)
	}
	sort.Strings(paths)
	return &fileSource{paths: paths}, nil
}

// Frame returns the next image in rotation.
func (s *fileSource) Frame() ([]byte, error) {
	s.mu.Lock()
	path := s.paths[s.next%len(s.paths)]
	s.next++
	s.mu.Unlock()
	return os.ReadFile(path)
}
