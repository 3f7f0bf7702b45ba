package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	taskstore "github.com/roach88/taskstore"
)

// listedRecord is the JSON payload per row of the list command.
type listedRecord struct {
	ID        string          `json:"id"`
	UpdatedAt int64           `json:"updated_at"`
	Body      json.RawMessage `json:"body"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		wheres  []string
		orderBy string
		limit   int
		offset  int
	)

	cmd := &cobra.Command{
		Use:   "list [collection]",
		Short: "List collections, or the live records of one collection",
		Long: `Without arguments, list the store's collections.

With a collection name, list its live records from the cache. Filters apply
to indexed fields and combine conjunctively:

  taskstore list tasks --where status=pending --where 'priority>2'

Operators: = != > >= < <= ~ (substring match on text fields).`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{
				Format:    rootOpts.Format,
				Writer:    cmd.OutOrStdout(),
				ErrWriter: cmd.ErrOrStderr(),
				Verbose:   rootOpts.Verbose,
			}
			if len(args) == 0 {
				return runListCollections(rootOpts, formatter)
			}
			return runListRecords(rootOpts, formatter, args[0], wheres, orderBy, limit, offset)
		},
	}

	cmd.Flags().StringArrayVar(&wheres, "where", nil, "filter on an indexed field (repeatable)")
	cmd.Flags().StringVar(&orderBy, "order", "id", "ordering: id | updated | updated_desc")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum rows (0 = all)")
	cmd.Flags().IntVar(&offset, "offset", 0, "rows to skip")

	return cmd
}

func runListCollections(opts *RootOptions, formatter *OutputFormatter) error {
	s, err := openStore(opts, true)
	if err != nil {
		return err
	}
	defer s.Close()

	names, err := s.Collections()
	if err != nil {
		formatter.Error(errorCode(err), err.Error(), nil)
		return NewExitError(ExitCommandError, "list collections")
	}

	if formatter.Format == "json" {
		return formatter.SuccessJSON(map[string]any{"collections": names})
	}
	for _, name := range names {
		fmt.Fprintln(formatter.Writer, name)
	}
	return nil
}

func runListRecords(opts *RootOptions, formatter *OutputFormatter, collection string, wheres []string, orderBy string, limit, offset int) error {
	filters, err := parseFilters(wheres)
	if err != nil {
		formatter.Error("VALIDATION", err.Error(), nil)
		return WrapExitError(ExitCommandError, "parse filters", err)
	}
	listOpts, err := parseListOptions(orderBy, limit, offset)
	if err != nil {
		formatter.Error("VALIDATION", err.Error(), nil)
		return WrapExitError(ExitCommandError, "parse options", err)
	}

	s, err := openStore(opts, true)
	if err != nil {
		return err
	}
	defer s.Close()

	rows, err := s.ListRaw(context.Background(), collection, filters, listOpts)
	if err != nil {
		formatter.Error(errorCode(err), err.Error(), nil)
		return WrapExitError(ExitCommandError, "list records", err)
	}

	if formatter.Format == "json" {
		out := make([]listedRecord, 0, len(rows))
		for _, row := range rows {
			out = append(out, listedRecord{ID: row.ID, UpdatedAt: row.UpdatedAt, Body: json.RawMessage(row.Body)})
		}
		return formatter.SuccessJSON(map[string]any{"collection": collection, "records": out})
	}

	table := tablewriter.NewWriter(formatter.Writer)
	table.Header("ID", "UPDATED", "SIZE")
	for _, row := range rows {
		updated := humanize.Time(time.UnixMilli(row.UpdatedAt))
		size := humanize.Bytes(uint64(len(row.Body)))
		table.Append(row.ID, updated, size)
	}
	if err := table.Render(); err != nil {
		return WrapExitError(ExitCommandError, "render table", err)
	}
	fmt.Fprintf(formatter.Writer, "%d record(s)\n", len(rows))
	return nil
}

// filter grammar: field<op>value with op one of = != > >= < <= ~
var filterOps = []struct {
	token string
	op    taskstore.FilterOp
}{
	{"!=", taskstore.Ne},
	{">=", taskstore.Gte},
	{"<=", taskstore.Lte},
	{">", taskstore.Gt},
	{"<", taskstore.Lt},
	{"=", taskstore.Eq},
	{"~", taskstore.Contains},
}

func parseFilters(wheres []string) ([]taskstore.Filter, error) {
	filters := make([]taskstore.Filter, 0, len(wheres))
	for _, expr := range wheres {
		parsed, err := parseFilter(expr)
		if err != nil {
			return nil, err
		}
		filters = append(filters, parsed)
	}
	return filters, nil
}

func parseFilter(expr string) (taskstore.Filter, error) {
	for _, candidate := range filterOps {
		idx := strings.Index(expr, candidate.token)
		if idx <= 0 {
			continue
		}
		field := expr[:idx]
		raw := expr[idx+len(candidate.token):]
		return taskstore.Filter{Field: field, Op: candidate.op, Value: parseValue(raw, candidate.op)}, nil
	}
	return taskstore.Filter{}, fmt.Errorf("invalid filter %q: expected field<op>value", expr)
}

// parseValue guesses the typed value: integers and booleans when the literal
// parses as one, text otherwise. Substring match is always text.
func parseValue(raw string, op taskstore.FilterOp) taskstore.IndexValue {
	if op == taskstore.Contains {
		return taskstore.Text(raw)
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return taskstore.Int(n)
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return taskstore.Bool(b)
	}
	return taskstore.Text(raw)
}

func parseListOptions(orderBy string, limit, offset int) (taskstore.ListOptions, error) {
	opts := taskstore.ListOptions{Limit: limit, Offset: offset}
	switch orderBy {
	case "id", "":
		opts.OrderBy = taskstore.OrderNone
	case "updated":
		opts.OrderBy = taskstore.OrderUpdatedAtAsc
	case "updated_desc":
		opts.OrderBy = taskstore.OrderUpdatedAtDesc
	default:
		return opts, fmt.Errorf("invalid order %q: must be id, updated, or updated_desc", orderBy)
	}
	return opts, nil
}
