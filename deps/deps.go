// Package deps starts and stops the local processes the service depends on, such as
// DynamoDB Local, for runs that do not have them available already.
package deps

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/sanctionco/thunder-contract-tests/framework"

	"github.com/alessio/shellescape"
	"gopkg.in/yaml.v3"
)

// Command describes one dependency process.
type Command struct {
	Name    string   `yaml:"name"`
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
	Dir     string   `yaml:"dir"`
	Env     []string `yaml:"env"`
}

// String returns the command line in a form that could be pasted into a shell.
func (c Command) String() string {
	var b commandBuilder
	b.add(c.Command)
	b.add(c.Args...)
	return b.String()
}

// Config is the optional configuration file for the run command.
type Config struct {
	Dependencies []Command `yaml:"dependencies"`
}

// DefaultCommands starts DynamoDB Local in Docker, listening on port 4567.
func DefaultCommands() []Command {
	return []Command{
		{
			Name:    "DynamoDB Local",
			Command: "docker",
			Args:    []string{"run", "--rm", "-p", "4567:8000", "amazon/dynamodb-local"},
		},
	}
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (Config, error) {
	var config Config
	data, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("can't read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("malformed config file %s: %w", path, err)
	}
	for i, c := range config.Dependencies {
		if c.Command == "" {
			return config, fmt.Errorf("dependency %d in %s has no command", i+1, path)
		}
	}
	return config, nil
}

// Processes is a set of running dependency processes.
type Processes struct {
	running []*process
	logger  framework.Logger
}

type process struct {
	command Command
	cmd     *exec.Cmd
	done    chan struct{}
}

// Start launches every command. If any of them cannot be started, the ones already
// running are stopped and an error is returned.
func Start(commands []Command, logger framework.Logger) (*Processes, error) {
	if logger == nil {
		logger = framework.NullLogger()
	}
	p := &Processes{logger: logger}
	for _, c := range commands {
		name := c.Name
		if name == "" {
			name = c.Command
		}
		logger.Printf("Launching %s: %s", name, c)

		cmd := exec.Command(c.Command, c.Args...)
		cmd.Dir = c.Dir
		if len(c.Env) != 0 {
			cmd.Env = append(os.Environ(), c.Env...)
		}
		if err := cmd.Start(); err != nil {
			p.Stop()
			return nil, fmt.Errorf("can't start %s: %w", name, err)
		}
		proc := &process{command: c, cmd: cmd, done: make(chan struct{})}
		go func() {
			_ = cmd.Wait()
			close(proc.done)
		}()
		p.running = append(p.running, proc)
	}
	return p, nil
}

// Stop kills every process that is still running and waits for them to exit.
func (p *Processes) Stop() {
	if p == nil {
		return
	}
	var wg sync.WaitGroup
	for _, proc := range p.running {
		proc := proc
		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case <-proc.done:
				return
			default:
			}
			if err := proc.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
				p.logger.Printf("WARN: Failed to stop %s: %s", proc.command, err)
			}
			<-proc.done
		}()
	}
	wg.Wait()
	p.running = nil
}

// Len returns the number of processes that were started.
func (p *Processes) Len() int {
	return len(p.running)
}

type commandBuilder []string

func (b *commandBuilder) add(args ...string) {
	for _, a := range args {
		*b = append(*b, shellescape.Quote(a))
	}
}

func (b commandBuilder) String() string {
	return strings.Join(b, " ")
}
