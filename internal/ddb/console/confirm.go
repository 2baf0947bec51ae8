package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sanjiv-madhavan/dynamodb-empty-tables/interfaces"
	"github.com/sanjiv-madhavan/dynamodb-empty-tables/internal/ddb/constants"
)

var (
	_ interfaces.Confirmer = (*LineConfirmer)(nil)
	_ interfaces.Confirmer = AutoConfirmer{}
)

// LineConfirmer asks on out and reads a single line from in. Only the
// affirmative token, in any letter case, confirms.
type LineConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

func NewLineConfirmer(in io.Reader, out io.Writer) *LineConfirmer {
	return &LineConfirmer{in: bufio.NewReader(in), out: out}
}

func (c *LineConfirmer) Confirm(ctx context.Context, question string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if _, err := fmt.Fprintf(c.out, "%s (%s/no): ", question, constants.AffirmativeToken); err != nil {
		return false, err
	}

	line, err := c.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("reading confirmation: %w", err)
	}
	return isAffirmative(line), nil
}

// isAffirmative strips only the line terminator; any other character,
// whitespace included, makes the answer a refusal.
func isAffirmative(line string) bool {
	answer := strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
	return strings.EqualFold(answer, constants.AffirmativeToken)
}

// AutoConfirmer answers yes without asking.
type AutoConfirmer struct{}

func (AutoConfirmer) Confirm(context.Context, string) (bool, error) {
	return true, nil
}
