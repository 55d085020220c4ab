// Package ingest runs the external clustering job and follows its status log.
package ingest

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nxadm/tail"

	"bkmview/internal/util/logx"
)

type Line struct {
	Text   string
	Source string
	When   time.Time
}

type ProcessOptions struct {
	// Command is the interpreter (resolved once by config) and Script its entry point.
	Command  string
	Script   string
	Input    string
	Output   string
	Clusters int
	// Args replaces the default argument list when set.
	Args        []string
	ScanBufSize int
}

func (o ProcessOptions) args() []string {
	if len(o.Args) > 0 {
		return o.Args
	}
	var args []string
	if o.Script != "" {
		args = append(args, o.Script)
	}
	return append(args, "--input", o.Input, "--output", o.Output, "--n", strconv.Itoa(o.Clusters))
}

// Process is a running clustering job whose stdout lines are forwarded on Lines.
type Process struct {
	Lines <-chan Line

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Start spawns the job. Spawn failures and abnormal exits are reported as
// "ERROR: ..." protocol lines so the progress display can show them.
func Start(ctx context.Context, opt ProcessOptions) *Process {
	ctx, cancel := context.WithCancel(ctx)
	out := make(chan Line, 256)
	p := &Process{Lines: out, cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(p.done)
		defer close(out)
		src := filepath.Base(opt.Command)
		emit := func(text string) {
			select {
			case out <- Line{Text: text, Source: src, When: time.Now()}:
			case <-ctx.Done():
			}
		}
		if opt.Output != "" {
			if err := os.MkdirAll(filepath.Dir(opt.Output), 0o755); err != nil {
				emit("ERROR: cannot create output directory: " + err.Error())
				return
			}
		}
		cmd := exec.CommandContext(ctx, opt.Command, opt.args()...)
		cmd.Stderr = nil
		cmd.WaitDelay = 2 * time.Second
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			emit("ERROR: failed to spawn " + opt.Command + ": " + err.Error())
			return
		}
		logx.Infof("ingest: starting %s %s", opt.Command, strings.Join(opt.args(), " "))
		if err := cmd.Start(); err != nil {
			emit("ERROR: failed to spawn " + opt.Command + ": " + err.Error())
			return
		}
		// grandchildren can keep the pipe open after the job is killed
		stopClose := context.AfterFunc(ctx, func() { _ = stdout.Close() })
		readLines(ctx, stdout, src, opt.ScanBufSize, out)
		stopClose()
		err = cmd.Wait()
		switch {
		case ctx.Err() != nil:
			logx.Infof("ingest: clustering process stopped")
		case err != nil:
			emit(fmt.Sprintf("ERROR: clustering process exited: %v", err))
		default:
			logx.Infof("ingest: clustering process finished")
		}
	}()
	return p
}

// Stop kills the job if it is still running and waits for it to exit.
func (p *Process) Stop() {
	p.once.Do(p.cancel)
	<-p.done
}

// Exited is closed once the job and its reader are gone.
func (p *Process) Exited() <-chan struct{} { return p.done }

func readLines(ctx context.Context, r io.Reader, src string, maxBuf int, out chan<- Line) {
	if maxBuf <= 0 {
		maxBuf = 1024 * 1024
	}
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, maxBuf)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		case out <- Line{Text: scanner.Text(), Source: src, When: time.Now()}:
		}
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, os.ErrClosed) {
		logx.Warnf("ingest: reading %s output: %v", src, err)
	}
}

// StatusLogPath is <dir>/<stem>_status.log for an output table path.
func StatusLogPath(output string) string {
	dir, base := filepath.Split(output)
	for _, ext := range []string{".gz", ".csv", ".tsv"} {
		base = strings.TrimSuffix(base, ext)
	}
	return filepath.Join(dir, base+"_status.log")
}

// TailStatus follows the job's status log from its beginning. The file may
// not exist yet.
func TailStatus(ctx context.Context, path string) (<-chan Line, <-chan error) {
	out := make(chan Line, 256)
	errs := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errs)
		t, err := tail.TailFile(path, tail.Config{
			Follow:    true,
			ReOpen:    true,
			MustExist: false,
			Logger:    tail.DiscardingLogger,
			Poll:      true,
		})
		if err != nil {
			errs <- err
			return
		}
		defer t.Cleanup()
		for {
			select {
			case <-ctx.Done():
				_ = t.Stop()
				return
			case l, ok := <-t.Lines:
				if !ok {
					return
				}
				if l.Err != nil {
					select {
					case errs <- l.Err:
					default:
					}
					continue
				}
				select {
				case out <- Line{Text: l.Text, Source: path, When: time.Now()}:
				case <-ctx.Done():
					_ = t.Stop()
					return
				}
			}
		}
	}()
	return out, errs
}
