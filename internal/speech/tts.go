package speech

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Speaker plays a sentence out loud on behalf of the user.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Disabled ignores playback requests.
type Disabled struct{}

func (Disabled) Speak(ctx context.Context, text string) error { return nil }

// CommandSpeaker pipes text into an external TTS command (e.g. a piper
// invocation that plays to the default output device).
type CommandSpeaker struct {
	command string
	args    []string
}

// NewCommandSpeaker creates a speaker backed by an external command.
func NewCommandSpeaker(command string, args []string) *CommandSpeaker {
	return &CommandSpeaker{command: command, args: args}
}

// Speak runs the command with the text on stdin and waits for playback.
func (s *CommandSpeaker) Speak(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	cmd := exec.CommandContext(ctx, s.command, s.args...)
	cmd.Stdin = strings.NewReader(text)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("tts playback failed: %v\nOutput: %s", err, string(output))
	}
	return nil
}
