package main

import (
	"encoding/hex"
	"fmt"
	"github.com/brickingsoft/asyncio"
	"github.com/brickingsoft/asyncio/pkg/vfs"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/sha3"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// deadline asks the scheduler to finish a file by a given frame.
type deadline struct {
	need int64
}

func (d *deadline) IOConfig(conf *asyncio.ReadConfig) bool {
	conf.NeedFrame = d.need
	return true
}

func (d *deadline) IONotify(int, asyncio.Status) {}

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found", "error", err)
	}
	cfg, err := ParseConfigFromEnv()
	if err != nil {
		slog.Error("Failed to parse config", "error", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	asyncio.SetLogger(logger)

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: asyncread FILE...")
		os.Exit(2)
	}

	if err = asyncio.Init(cfg.Options(logger)...); err != nil {
		slog.Error("Failed to start async reader", "error", err)
		os.Exit(1)
	}
	defer func() {
		if finiErr := asyncio.Fini(); finiErr != nil {
			slog.Error("Failed to stop async reader", "error", finiErr)
		}
	}()
	sys := asyncio.Default()

	var fileOptions []vfs.Option
	fileOptions = append(fileOptions, vfs.Sequential())
	if cfg.Unbuffered {
		fileOptions = append(fileOptions, vfs.Unbuffered())
	}

	ops := make([]*asyncio.Operation, 0, len(os.Args)-1)
	for i, name := range os.Args[1:] {
		file, openErr := vfs.Open(name, fileOptions...)
		if openErr != nil {
			slog.Error("Failed to open file", "file", name, "error", openErr)
			continue
		}
		sink := &deadline{need: sys.Frame() + int64(i+1)*cfg.FrameSpacing}
		op, readErr := sys.ReadFile(file, name, nil, 0, sink)
		// the operation holds its own reference
		_ = file.Drop()
		if readErr != nil {
			slog.Error("Failed to submit read", "file", name, "error", readErr)
			continue
		}
		ops = append(ops, op)
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	ticker := time.NewTicker(cfg.FrameInterval)
	defer ticker.Stop()

	start := time.Now()
	for pending(ops) > 0 {
		select {
		case sig := <-signals:
			slog.Warn("Interrupted", "signal", sig)
			for _, op := range ops {
				op.Cancel()
			}
		case <-ticker.C:
			sys.Step()
		}
	}

	for _, op := range ops {
		report(op)
		asyncio.Close(op)
	}
	sys.Step()
	stats := sys.Stats()
	slog.Info("Done",
		"frames", sys.Frame(),
		"elapsed", time.Since(start),
		"reads", stats.Reads,
		"bytes", stats.Bytes,
		"retries", stats.Retries,
		"failed", stats.Failed,
	)
}

func pending(ops []*asyncio.Operation) int {
	n := 0
	for _, op := range ops {
		if op.Status() == asyncio.Pending {
			n++
		}
	}
	return n
}

func report(op *asyncio.Operation) {
	if op.Status() != asyncio.Success {
		fmt.Printf("%-8s %10d/%-10d %s\n", op.Status(), op.Tell(), op.Size(), op.Name())
		return
	}
	sum := sha3.Sum256(op.Bytes()[:op.Size()])
	fmt.Printf("%-8s %10d %s  %s\n", op.Status(), op.Size(), hex.EncodeToString(sum[:]), op.Name())
}
