// cmd/stockctl/commands.go
package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"stock-backoffice/internal/models"
	"stock-backoffice/internal/stock"
	"stock-backoffice/internal/stock/bulkedit"
	"stock-backoffice/internal/stock/facets"
	"stock-backoffice/internal/stock/filters"
	"stock-backoffice/internal/stock/table"
)

type globalOptions struct {
	configPath string
	logLevel   string
	output     string
}

func (o *globalOptions) json() bool { return o.output == "json" }

// withApp wraps fn so it runs with a wired App and a context cancelled on
// SIGINT or SIGTERM.
func (o *globalOptions) withApp(fn func(cmd *cobra.Command, args []string, app *App) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		cmd.SetContext(ctx)

		app, err := newApp(ctx, *o)
		if err != nil {
			return err
		}
		defer app.Close()
		return fn(cmd, args, app)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	cmd := &cobra.Command{
		Use:   "stockctl",
		Short: "stockctl - back office for seized leased property",
		Long: `stockctl browses and edits the stock of seized leased property.

Table settings (tab, page size, sort, columns and filters) persist between
invocations in the configured storage backend.

Settings can be overridden through environment variables prefixed with
STOCK_, e.g. STOCK_API_BASE_URL=https://stock.example/api ./stockctl list`,
		SilenceUsage: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "config file (default: configs/config.yaml)")
	pf.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")
	pf.StringVarP(&opts.output, "output", "o", "table", "table or json")

	cmd.AddCommand(
		newListCmd(opts),
		newSearchCmd(opts),
		newTabsCmd(opts),
		newFiltersCmd(opts),
		newColumnsCmd(opts),
		newExportCmd(opts),
		newImportPricesCmd(opts),
		newPermissionsCmd(opts),
		newShowCmd(opts),
		newFeedCmd(opts),
		newMassEditCmd(opts),
		newServeCmd(opts),
	)
	return cmd
}

// listOptions drive one listing view.
type listOptions struct {
	tab     string
	page    int
	perPage int
	sort    string
	search  string
	reset   bool
	filters filterFlags
}

func (l *listOptions) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&l.tab, "tab", "", "active or archive")
	fs.IntVar(&l.page, "page", 0, "page number")
	fs.IntVar(&l.perPage, "per-page", 0, fmt.Sprintf("items per page, one of %v", table.ItemsPerPageOptions))
	fs.StringVar(&l.sort, "sort", "", `sort column, "-column" for descending, "none" to clear`)
	fs.BoolVar(&l.reset, "reset-filters", false, "clear the saved filters first")
	l.filters.register(cmd)
}

// apply replays the options on the listing store in the order a user
// would: tab, filters, sort, page size, page, search.
func (l *listOptions) apply(cmd *cobra.Command, s *stock.Store) error {
	ctx := cmd.Context()
	s.Initialize(ctx)

	if l.tab != "" {
		s.HandleTabChange(ctx, l.tab)
	}
	if l.reset {
		s.ResetFilters(ctx)
	}
	if l.filters.changed(cmd) {
		f, err := l.filters.apply(cmd, s.Snapshot().Filters)
		if err != nil {
			return err
		}
		report, err := s.ApplyFilters(ctx, f)
		if err != nil {
			renderRangeReport(cmd.ErrOrStderr(), report)
			return err
		}
		if len(report.Warnings) > 0 {
			renderRangeReport(cmd.ErrOrStderr(), report)
		}
	}
	if l.sort != "" {
		column, desc := parseSort(l.sort)
		s.HandleSortChange(ctx, column, desc)
	}
	if l.perPage > 0 {
		if err := s.HandleItemsPerPageChange(ctx, l.perPage); err != nil {
			return fmt.Errorf("%w: allowed sizes are %v", err, table.ItemsPerPageOptions)
		}
	}
	if l.page > 0 {
		s.HandlePageChange(ctx, l.page)
	}
	if l.search != "" {
		s.OnSearchInput(ctx, l.search)
		s.FlushSearch()
	}
	return nil
}

func (o *globalOptions) renderStock(cmd *cobra.Command, app *App) error {
	snap := app.stock.Snapshot()
	if o.json() {
		return printJSON(cmd.OutOrStdout(), snap)
	}
	renderListing(cmd.OutOrStdout(), snap, app.columns.Visible())
	return nil
}

func newListCmd(opts *globalOptions) *cobra.Command {
	l := &listOptions{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show a page of the stock listing",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(cmd *cobra.Command, _ []string, app *App) error {
			if err := l.apply(cmd, app.stock); err != nil {
				return err
			}
			return opts.renderStock(cmd, app)
		}),
	}
	l.register(cmd)
	cmd.Flags().StringVar(&l.search, "search", "", "free-text search")
	return cmd
}

func newSearchCmd(opts *globalOptions) *cobra.Command {
	l := &listOptions{}
	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Search the stock by free text",
		Args:  cobra.MinimumNArgs(1),
		RunE: opts.withApp(func(cmd *cobra.Command, args []string, app *App) error {
			l.search = strings.Join(args, " ")
			if err := l.apply(cmd, app.stock); err != nil {
				return err
			}
			return opts.renderStock(cmd, app)
		}),
	}
	l.register(cmd)
	return cmd
}

func newTabsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tabs",
		Short: "Show the listing tabs with their totals",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(cmd *cobra.Command, _ []string, app *App) error {
			app.stock.Initialize(cmd.Context())
			snap := app.stock.Snapshot()
			if opts.json() {
				return printJSON(cmd.OutOrStdout(), snap.Tabs)
			}
			renderTabs(cmd.OutOrStdout(), snap.Tabs, snap.ActiveTab)
			return nil
		}),
	}
}

func newFiltersCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filters",
		Short: "Inspect, validate and reset the saved filters",
	}

	var tab string
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the saved filters of a tab",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(cmd *cobra.Command, _ []string, app *App) error {
			group := filters.GroupFromTab(tab)
			f := app.repo.Load(cmd.Context(), group)
			if !opts.json() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s, %s %d\n", faint("group"), group, faint("active"), f.ActiveCount())
			}
			return printJSON(cmd.OutOrStdout(), f)
		}),
	}
	show.Flags().StringVar(&tab, "tab", "active", "active or archive")

	var ff filterFlags
	validate := &cobra.Command{
		Use:   "validate",
		Short: "Check filter ranges without touching the saved filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := ff.apply(cmd, filters.Empty())
			if err != nil {
				return err
			}
			report := filters.ValidateRanges(f, time.Now())
			if opts.json() {
				if err := printJSON(cmd.OutOrStdout(), report); err != nil {
					return err
				}
			} else {
				renderRangeReport(cmd.OutOrStdout(), report)
			}
			if !report.Valid() {
				return errors.New("filters are out of range")
			}
			return nil
		},
	}
	ff.register(validate)

	reset := &cobra.Command{
		Use:   "reset",
		Short: "Clear the saved filters of the current tab",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(cmd *cobra.Command, _ []string, app *App) error {
			app.stock.Initialize(cmd.Context())
			app.stock.ResetFilters(cmd.Context())
			return opts.renderStock(cmd, app)
		}),
	}

	options := &cobra.Command{
		Use:   "options",
		Short: "List the choices of every filter for the current tab",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(cmd *cobra.Command, _ []string, app *App) error {
			app.stock.Initialize(cmd.Context())
			app.stock.OpenFilters(cmd.Context())

			lists := make(map[facets.List][]models.Option)
			for name, options := range app.cascade.Snapshot().Lists {
				lists[name] = options
			}
			for name, options := range app.additional.Snapshot().Lists {
				lists[name] = options
			}
			if opts.json() {
				return printJSON(cmd.OutOrStdout(), lists)
			}

			names := make([]string, 0, len(lists))
			for name := range lists {
				names = append(names, string(name))
			}
			sort.Strings(names)
			t := newTable(cmd.OutOrStdout(), []string{"Список", "Код", "Значение"})
			for _, name := range names {
				for _, o := range lists[facets.List(name)] {
					t.Append([]string{name, o.Value, o.Text})
				}
			}
			t.Render()
			return nil
		}),
	}

	cmd.AddCommand(show, validate, reset, options)
	return cmd
}

func newColumnsCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "columns",
		Short: "Show or change the visible listing columns",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(cmd *cobra.Command, _ []string, app *App) error {
			app.columns.Load(cmd.Context())
			if opts.json() {
				return printJSON(cmd.OutOrStdout(), app.columns.Headers())
			}
			renderColumns(cmd.OutOrStdout(), app.columns.Headers())
			return nil
		}),
	}

	visibility := func(use string, visible bool) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <column>...",
			Short: strings.ToUpper(use[:1]) + use[1:] + " listing columns",
			Args:  cobra.MinimumNArgs(1),
			RunE: opts.withApp(func(cmd *cobra.Command, args []string, app *App) error {
				app.columns.Load(cmd.Context())
				for _, column := range args {
					if !app.columns.SetVisibility(cmd.Context(), column, visible) {
						return fmt.Errorf("unknown column %q", column)
					}
				}
				renderColumns(cmd.OutOrStdout(), app.columns.Headers())
				return nil
			}),
		}
	}

	reset := &cobra.Command{
		Use:   "reset",
		Short: "Restore the default columns",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(cmd *cobra.Command, _ []string, app *App) error {
			app.columns.Reset(cmd.Context())
			renderColumns(cmd.OutOrStdout(), app.columns.Headers())
			return nil
		}),
	}

	cmd.AddCommand(visibility("show", true), visibility("hide", false), reset)
	return cmd
}

func newExportCmd(opts *globalOptions) *cobra.Command {
	l := &listOptions{}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download the current listing page as a spreadsheet",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(cmd *cobra.Command, _ []string, app *App) error {
			if err := l.apply(cmd, app.stock); err != nil {
				return err
			}
			path, err := app.stock.Export(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), green(path))
			return nil
		}),
	}
	l.register(cmd)
	return cmd
}

func newImportPricesCmd(opts *globalOptions) *cobra.Command {
	l := &listOptions{}
	cmd := &cobra.Command{
		Use:   "import-prices <file>",
		Short: "Upload a valuation spreadsheet and refresh the listing",
		Args:  cobra.ExactArgs(1),
		RunE: opts.withApp(func(cmd *cobra.Command, args []string, app *App) error {
			if err := l.apply(cmd, app.stock); err != nil {
				return err
			}
			ctx := cmd.Context()
			result, err := app.stock.ImportPrices(ctx, args[0])
			if opts.json() {
				if jerr := printJSON(cmd.OutOrStdout(), result); jerr != nil {
					return jerr
				}
			} else {
				renderPriceImport(cmd.OutOrStdout(), result)
			}
			app.stock.CloseImport(ctx)
			if err != nil {
				return err
			}
			if result.HasChanges() && !opts.json() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %d\n", faint("listing refreshed, items"), app.stock.Snapshot().Page.Count)
			}
			return nil
		}),
	}
	l.register(cmd)
	return cmd
}

func newPermissionsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "permissions",
		Short: "Show the role and permissions of the signed-in user",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(cmd *cobra.Command, _ []string, app *App) error {
			if err := app.access.Initialize(cmd.Context()); err != nil {
				return err
			}
			snap := app.access.Snapshot()
			if opts.json() {
				return printJSON(cmd.OutOrStdout(), snap)
			}
			renderAccess(cmd.OutOrStdout(), snap, app.access.IsManager())
			return nil
		}),
	}
}

func newShowCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <uid>",
		Short: "Show a property card",
		Args:  cobra.ExactArgs(1),
		RunE: opts.withApp(func(cmd *cobra.Command, args []string, app *App) error {
			detail, err := app.detail.Detail(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if opts.json() {
				return printJSON(cmd.OutOrStdout(), detail.Fields)
			}
			renderDetail(cmd.OutOrStdout(), detail)
			return nil
		}),
	}
}

// parseEventType accepts an event type name; the empty string means all.
func parseEventType(name string) (models.FeedEventType, error) {
	if name == "" {
		return "", nil
	}
	for _, t := range models.FeedEventTypes() {
		if strings.EqualFold(string(t), name) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown event type %q, known: %v", name, models.FeedEventTypes())
}

func newFeedCmd(opts *globalOptions) *cobra.Command {
	var (
		eventType string
		pages     int
	)
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Show the activity feed",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(cmd *cobra.Command, _ []string, app *App) error {
			t, err := parseEventType(eventType)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if t != "" {
				app.feed.FilterByEventType(ctx, t)
			} else {
				app.feed.LoadFeed(ctx, true)
			}
			for i := 1; i < pages; i++ {
				app.feed.LoadMore(ctx)
			}

			snap := app.feed.Snapshot()
			if opts.json() {
				return printJSON(cmd.OutOrStdout(), snap)
			}
			renderFeed(cmd.OutOrStdout(), snap)
			return nil
		}),
	}
	cmd.Flags().StringVar(&eventType, "type", "", "event type filter")
	cmd.Flags().IntVar(&pages, "pages", 1, "number of pages to load")

	read := &cobra.Command{
		Use:   "read <uid>...",
		Short: "Mark events as read",
		Args:  cobra.MinimumNArgs(1),
		RunE: opts.withApp(func(cmd *cobra.Command, args []string, app *App) error {
			ctx := cmd.Context()
			app.feed.LoadFeed(ctx, true)
			for _, uid := range args {
				app.feed.MarkAsRead(ctx, uid)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d\n", faint("unread"), app.feed.Snapshot().Unread)
			return nil
		}),
	}

	readAll := &cobra.Command{
		Use:   "read-all",
		Short: "Mark every event as read",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(cmd *cobra.Command, _ []string, app *App) error {
			app.feed.ReadAll(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d\n", faint("unread"), app.feed.Snapshot().Unread)
			return nil
		}),
	}

	unread := &cobra.Command{
		Use:   "unread",
		Short: "Print the number of unread events",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(cmd *cobra.Command, _ []string, app *App) error {
			fmt.Fprintln(cmd.OutOrStdout(), app.feed.RefreshUnread(cmd.Context()))
			return nil
		}),
	}

	cmd.AddCommand(read, readAll, unread)
	return cmd
}

// massEditFlags maps form fields to their flags.
var massEditFlags = map[string]string{
	bulkedit.FieldStatus:          "status",
	bulkedit.FieldResponsibleUser: "responsible",
	bulkedit.FieldKeysCount:       "keys-count",
	bulkedit.FieldOwnersCount:     "owners-count",
	bulkedit.FieldRestrictions:    "restrictions",
	bulkedit.FieldMileage:         "mileage",
	bulkedit.FieldEngineHours:     "engine-hours",
	bulkedit.FieldRealizationCost: "realization-cost",
}

var massEditOrder = []string{
	bulkedit.FieldStatus, bulkedit.FieldResponsibleUser, bulkedit.FieldKeysCount, bulkedit.FieldOwnersCount,
	bulkedit.FieldRestrictions, bulkedit.FieldMileage, bulkedit.FieldEngineHours, bulkedit.FieldRealizationCost,
}

func newMassEditCmd(opts *globalOptions) *cobra.Command {
	var (
		uids       []string
		tab        string
		fieldsOnly bool
		form       bulkedit.Form

		status, responsible, keysCount     string
		owners, mileage, engineHours, cost int
		restrictions                       bool
	)
	cmd := &cobra.Command{
		Use:   "mass-edit",
		Short: "Change fields of several items at once",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(cmd *cobra.Command, _ []string, app *App) error {
			ctx := cmd.Context()
			b := app.bulk
			b.LoadFields(ctx, filters.GroupFromTab(tab))
			b.SetSelectedItemsCount(len(uids))
			if fieldsOnly {
				renderFields(cmd.OutOrStdout(), b.Snapshot())
				return nil
			}

			fs := cmd.Flags()
			var codes []string
			for _, code := range massEditOrder {
				if !fs.Changed(massEditFlags[code]) {
					continue
				}
				if !b.IsFieldAvailable(code) {
					return fmt.Errorf("%s cannot be changed for %d items at once", code, len(uids))
				}
				codes = append(codes, code)
			}
			b.HandleFieldsChange(codes)

			if fs.Changed("status") {
				form.Status = &status
			}
			if fs.Changed("responsible") {
				form.ResponsibleUser = &responsible
			}
			if fs.Changed("keys-count") {
				form.KeysCount = &keysCount
			}
			if fs.Changed("owners-count") {
				form.OwnersCount = &owners
			}
			if fs.Changed("restrictions") {
				form.Restrictions = &restrictions
			}
			if fs.Changed("mileage") {
				form.Mileage = &mileage
			}
			if fs.Changed("engine-hours") {
				form.EngineHours = &engineHours
			}
			if fs.Changed("realization-cost") {
				form.RealizationCost = &cost
			}
			b.UpdateForm(func(f *bulkedit.Form) { *f = form })

			result, err := b.Save(ctx, uids)
			if err != nil {
				return err
			}
			if opts.json() {
				return printJSON(cmd.OutOrStdout(), result)
			}
			renderMassEdit(cmd.OutOrStdout(), result)
			return nil
		}),
	}

	fs := cmd.Flags()
	fs.StringSliceVar(&uids, "uid", nil, "items to change")
	fs.StringVar(&tab, "tab", "active", "active or archive")
	fs.BoolVar(&fieldsOnly, "fields", false, "only list the editable fields for the selection")
	fs.StringVar(&status, "status", "", "new status code")
	fs.StringVar(&responsible, "responsible", "", "new responsible user uid")
	fs.StringVar(&keysCount, "keys-count", "", "new keys count")
	fs.IntVar(&owners, "owners-count", 0, "new owners count")
	fs.BoolVar(&restrictions, "restrictions", false, "registration restrictions present")
	fs.IntVar(&mileage, "mileage", 0, "new mileage")
	fs.IntVar(&engineHours, "engine-hours", 0, "new engine hours")
	fs.IntVar(&cost, "realization-cost", 0, "new realization cost")
	_ = cmd.MarkFlagRequired("uid")
	return cmd
}
