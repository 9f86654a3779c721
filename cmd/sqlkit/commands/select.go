package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/sqlkit/dialect"
	"github.com/satishbabariya/sqlkit/internal/filter"
	"github.com/satishbabariya/sqlkit/query"
)

type selectOptions struct {
	columns []string
	where   string
	order   []string
	limit   int
	offset  int
	dryRun  bool
}

func newSelectCommand(app *App) *cobra.Command {
	var opts selectOptions

	cmd := &cobra.Command{
		Use:   "select <table>",
		Short: "Query a table",
		Long: `Query a table and print the rows.

The --where flag takes a filter such as:

    age >= 18 and (role in ('admin', 'owner') or deleted_at is null)`,
		Example: `  sqlkit select users --columns id,email --where "active = true" --order id:desc --limit 10
  sqlkit select users --where "name like 'a%'" --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if opts.dryRun {
				cfg, err := app.connectionConfig()
				if err != nil {
					return err
				}
				d, err := dialect.Lookup(cfg.Driver)
				if err != nil {
					return err
				}
				b, err := opts.build(query.New(d, nil), args[0])
				if err != nil {
					return err
				}
				sql, values, err := b.ToSQL()
				if err != nil {
					return err
				}
				app.Printer.SQL(sql, values)
				return nil
			}

			db, err := app.open(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			b, err := opts.build(db.Query(), args[0])
			if err != nil {
				return err
			}
			rows, err := b.Get(ctx)
			if err != nil {
				return err
			}
			return app.Printer.Rows(rows)
		},
	}

	cmd.Flags().StringSliceVar(&opts.columns, "columns", nil, "Columns to select (default *)")
	cmd.Flags().StringVar(&opts.where, "where", "", "Filter expression")
	cmd.Flags().StringSliceVar(&opts.order, "order", nil, "Order terms as column[:asc|desc]")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "Maximum number of rows")
	cmd.Flags().IntVar(&opts.offset, "offset", 0, "Rows to skip, used with --limit")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Print the statement without running it")

	return cmd
}

func (o selectOptions) build(b *query.Builder, table string) (*query.Builder, error) {
	b = b.Table(table)
	if len(o.columns) > 0 {
		b = b.Select(o.columns...)
	}
	if err := filter.Apply(b, o.where); err != nil {
		return nil, err
	}
	for _, term := range o.order {
		column, direction, _ := strings.Cut(term, ":")
		if direction == "" {
			direction = "asc"
		}
		b = b.OrderBy(column, direction)
	}
	if o.limit > 0 {
		b = b.Skip(o.offset).Take(o.limit)
	}
	if err := b.Err(); err != nil {
		return nil, fmt.Errorf("select %s: %w", table, err)
	}
	return b, nil
}
