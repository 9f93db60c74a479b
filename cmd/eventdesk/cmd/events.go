package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Togather-Foundation/eventdesk/internal/domain/events"
	"github.com/Togather-Foundation/eventdesk/internal/notify"
	"github.com/Togather-Foundation/eventdesk/internal/store"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

func newEventsCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List and manage events",
		Long: `List, create, update and delete events on the events API.

Listing is public; creating and updating need a session (eventdesk login),
and deleting needs an admin account.`,
	}
	cmd.AddCommand(
		newEventsListCommand(opts),
		newEventsCreateCommand(opts),
		newEventsUpdateCommand(opts),
		newEventsDeleteCommand(opts),
		newEventsWatchCommand(opts),
	)
	return cmd
}

type listFlags struct {
	params events.ListParams
	format string
}

func (f *listFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.params.Page, "page", 0, "page number (default: first page)")
	cmd.Flags().IntVarP(&f.params.Limit, "limit", "n", 0, "events per page (default: server's)")
	cmd.Flags().StringVarP(&f.params.Search, "search", "s", "", "search title, description and location")
	cmd.Flags().StringVar(&f.params.Category, "category", "", "only events in this category")
	cmd.Flags().StringVar(&f.params.Sort, "sort", "", "sort by createdAt, date or title; prefix - for descending")
	cmd.Flags().StringVarP(&f.format, "format", "o", "", "output format (table, json, yaml) (default: table on a terminal, json otherwise)")
}

func newEventsListCommand(opts *globalOptions) *cobra.Command {
	flags := &listFlags{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List events",
		Long: `List events, one page at a time.

Examples:
  eventdesk events list
  eventdesk events list --search jazz --sort date
  eventdesk events list --page 2 --limit 20 --format yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat(flags.format)
			if err != nil {
				return err
			}
			a, err := opts.newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			s := a.eventStore(a.toaster)
			s.FetchEvents(cmd.Context(), flags.params)
			state := s.State()
			if state.Err != nil {
				return errReported
			}
			return printEvents(a.out, format, state.Events, state.Meta)
		},
	}
	flags.register(cmd)
	return cmd
}

type payloadFlags struct {
	title       string
	description string
	date        string
	location    string
	category    string
	capacity    int
}

func (f *payloadFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "event title (required)")
	cmd.Flags().StringVar(&f.description, "description", "", "event description")
	cmd.Flags().StringVar(&f.date, "date", "", `when the event happens, e.g. "2026-11-01T18:00:00Z", "2026-11-01" or "next friday 7pm"`)
	cmd.Flags().StringVar(&f.location, "location", "", "where the event happens")
	cmd.Flags().StringVar(&f.category, "category", "", "event category")
	cmd.Flags().IntVar(&f.capacity, "capacity", 0, "maximum attendees (0 for no limit)")
}

func (f *payloadFlags) payload(now time.Time) (events.Payload, error) {
	p := events.Payload{
		Title:       f.title,
		Description: f.description,
		Location:    f.location,
		Category:    f.category,
		Capacity:    f.capacity,
	}
	if f.date != "" {
		date, err := events.ParseDate(f.date, now)
		if err != nil {
			return events.Payload{}, fmt.Errorf("--date: %w", err)
		}
		p.Date = &date
	}
	return p, nil
}

func newEventsCreateCommand(opts *globalOptions) *cobra.Command {
	flags := &payloadFlags{}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an event",
		Long: `Create an event. Requires a session.

Examples:
  eventdesk events create --title "Go meetup" --date "next thursday 6pm" --location "Library"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := flags.payload(time.Now())
			if err != nil {
				return err
			}
			a, err := opts.newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			s := a.eventStore(a.toaster)
			s.AddEvent(cmd.Context(), payload)
			state := s.State()
			if state.Err != nil {
				return errReported
			}
			if len(state.Events) > 0 {
				printEvent(a.out, state.Events[0])
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newEventsUpdateCommand(opts *globalOptions) *cobra.Command {
	flags := &payloadFlags{}
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace an event's fields",
		Long: `Replace an event's fields. Fields that are not given are cleared, so pass
every field the event should keep. Requires a session.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := flags.payload(time.Now())
			if err != nil {
				return err
			}
			a, err := opts.newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			s := a.eventStore(a.toaster)
			s.UpdateEvent(cmd.Context(), args[0], payload)
			if s.State().Err != nil {
				return errReported
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newEventsDeleteCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete events",
		Long:  `Delete one or more events. Requires an admin session.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			s := a.eventStore(a.toaster)
			failed := false
			for _, id := range args {
				s.DeleteEvent(cmd.Context(), id)
				if s.State().Err != nil {
					failed = true
				}
			}
			if failed {
				return errReported
			}
			return nil
		},
	}
}

func newEventsWatchCommand(opts *globalOptions) *cobra.Command {
	flags := &listFlags{}
	var schedule string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Refresh the event list on a schedule",
		Long: `Fetch the event list now and then on a cron schedule, printing it after
every refresh. Stops on Ctrl-C.

Examples:
  eventdesk events watch
  eventdesk events watch --schedule "*/5 * * * *" --sort date`,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat(flags.format)
			if err != nil {
				return err
			}
			a, err := opts.newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			toaster := notify.Multi(a.toaster, notify.NewLogToaster(a.logger))
			s := a.eventStore(toaster)
			return watchEvents(ctx, s, schedule, flags.params, func(state store.State) {
				if err := printEvents(a.out, format, state.Events, state.Meta); err != nil {
					a.logger.Error().Err(err).Msg("print events")
				}
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&schedule, "schedule", "@every 30s", "cron schedule (standard 5-field spec or @every <duration>)")
	return cmd
}

// watchEvents fetches immediately and on every tick of schedule until ctx is
// done, calling render after each successful fetch.
func watchEvents(ctx context.Context, s *store.Store, schedule string, params events.ListParams, render func(store.State)) error {
	c := cron.New()
	refresh := func() {
		s.FetchEvents(ctx, params)
		if state := s.State(); state.Err == nil {
			render(state)
		}
	}
	if _, err := c.AddFunc(schedule, refresh); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	refresh()
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
