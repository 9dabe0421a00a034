package output

import (
	"io"
	"os"
	"os/exec"
	"strings"
)

// Pager pipes report output through an external pager command. Close waits
// for the pager to exit.
type Pager struct {
	io.WriteCloser
	cmd *exec.Cmd
}

// StartPager launches the pager with output bound to the user's terminal.
// The command may carry arguments, e.g. "less -FRX".
func StartPager(command string) (*Pager, error) {
	fields := strings.Fields(command)
	cmd := exec.Command(fields[0], fields[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &Pager{WriteCloser: stdin, cmd: cmd}, nil
}

// Close closes the pipe and waits for the pager to finish.
func (p *Pager) Close() error {
	if err := p.WriteCloser.Close(); err != nil {
		p.cmd.Wait()
		return err
	}
	return p.cmd.Wait()
}
