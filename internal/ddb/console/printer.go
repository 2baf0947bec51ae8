// Package console writes the operator-facing lines of a run and reads the
// confirmation answer. Structured logs go through zap; this package only
// deals with the plain text a person watches on a terminal.
package console

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/sanjiv-madhavan/dynamodb-empty-tables/interfaces"
	"github.com/sanjiv-madhavan/dynamodb-empty-tables/internal/ddb/models"
)

const (
	glyphWarning = "⚠️ "
	glyphCheck   = "✓"
	glyphDone    = "✅"
)

var _ interfaces.ProgressReporter = (*Printer)(nil)

// Printer is safe for concurrent use; each call writes its lines in one piece.
type Printer struct {
	mu  sync.Mutex
	out io.Writer
}

func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

func (p *Printer) Warning(account string, tables []string) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s WARNING: This will DELETE ALL DATA from the DynamoDB tables!\n", glyphWarning)
	if account != "" {
		fmt.Fprintf(&b, "AWS account: %s\n", account)
	}
	b.WriteString("Tables to be emptied:\n")
	for _, t := range tables {
		fmt.Fprintf(&b, "  - %s\n", t)
	}
	b.WriteString("\n")
	p.write(b.String())
}

func (p *Printer) Cancelled() {
	p.write("Operation cancelled.\n")
}

func (p *Printer) TableStarted(schema models.TableKeySchema) {
	var b strings.Builder
	fmt.Fprintf(&b, "\nProcessing table: %s\n", schema.TableName)
	fmt.Fprintf(&b, "  Hash key: %s\n", schema.PartitionKey)
	if schema.HasRangeKey() {
		fmt.Fprintf(&b, "  Range key: %s\n", schema.RangeKey)
	}
	b.WriteString("  Scanning and deleting items...\n")
	p.write(b.String())
}

func (p *Printer) TableProgress(tableName string, deleted int) {
	p.write(fmt.Sprintf("    Deleted %d items from %s...\n", deleted, tableName))
}

func (p *Printer) TableDone(result models.EmptyTableResult) {
	line := fmt.Sprintf("  %s Deleted %d items from %s\n", glyphCheck, result.DeletedItems, result.TableName)
	if result.UnprocessedItems > 0 {
		line += fmt.Sprintf("  %s %d items were left unprocessed in %s\n", glyphWarning, result.UnprocessedItems, result.TableName)
	}
	p.write(line)
}

func (p *Printer) TableFailed(result models.EmptyTableResult) {
	p.write(fmt.Sprintf("Error processing %s after deleting %d items: %v\n", result.TableName, result.DeletedItems, result.Err))
}

func (p *Printer) Summary(summary models.RunSummary) {
	var b strings.Builder
	if failed := summary.FailedTables(); len(failed) > 0 {
		names := make([]string, 0, len(failed))
		for _, r := range failed {
			names = append(names, r.TableName)
		}
		fmt.Fprintf(&b, "\n%s %d table(s) were not fully emptied: %s\n", glyphWarning, len(failed), strings.Join(names, ", "))
	}
	fmt.Fprintf(&b, "\n%s All DynamoDB tables have been emptied successfully!\n", glyphDone)
	fmt.Fprintf(&b, "Total items deleted: %d\n", summary.TotalDeletedItems)
	b.WriteString("\nYou can now safely run 'terraform destroy' without deleting the table structures.\n")
	p.write(b.String())
}

func (p *Printer) write(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = io.WriteString(p.out, s)
}
