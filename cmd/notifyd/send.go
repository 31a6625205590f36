package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/notifykit/pkg/channel"
	"github.com/dmitrymomot/notifykit/svc/dispatch"
)

func (c *cli) dispatchCmd() *cobra.Command {
	var ev dispatch.Event

	cmd := &cobra.Command{
		Use:   "dispatch EVENT_TYPE",
		Short: "Dispatch one event and print the result",
		Example: `  notifyd dispatch ticket_created \
    --set ticket_number=42 --set client_email=ops@acme.com \
    --ref-type ticket --ref-id 42`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ev.Type = args[0]
			if err := ev.Validate(); err != nil {
				return err
			}

			a, err := c.app(cmd.Context())
			if err != nil {
				return err
			}
			defer c.close(a)

			res := a.Dispatcher.Dispatch(cmd.Context(), ev)
			if err := printJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if n := res.Failed(); n > 0 {
				return fmt.Errorf("%d of %d attempts failed", n, len(res.Attempts))
			}
			return nil
		},
	}
	cmd.Flags().StringToStringVar(&ev.Payload, "set", nil, "payload entry as key=value, repeatable")
	cmd.Flags().StringVar(&ev.Reference.Type, "ref-type", "", "reference type recorded in the delivery log")
	cmd.Flags().StringVar(&ev.Reference.ID, "ref-id", "", "reference id recorded in the delivery log")
	return cmd
}

func (c *cli) testSendCmd() *cobra.Command {
	var (
		req dispatch.TestRequest
		ch  string
	)

	cmd := &cobra.Command{
		Use:   "test-send TEMPLATE_ID",
		Short: "Render one template and send it to a single recipient",
		Example: `  notifyd test-send ticket-created-admins --channel email \
    --to me@agency.com --var ticket_number=42`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := channel.Parse(ch)
			if err != nil {
				return err
			}
			req.TemplateID = args[0]
			req.Channel = parsed
			if err := req.Validate(); err != nil {
				return err
			}

			a, err := c.app(cmd.Context())
			if err != nil {
				return err
			}
			defer c.close(a)

			res, err := a.Dispatcher.TestSend(cmd.Context(), req)
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if !res.Success {
				return fmt.Errorf("test send failed: %s", res.Error)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&ch, "channel", string(channel.Email), "channel to send on")
	cmd.Flags().StringVar(&req.Address, "to", "", "recipient address")
	cmd.Flags().StringToStringVar(&req.Variables, "var", nil, "template variable as key=value, repeatable")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.Join(errors.New("encode output"), err)
	}
	return nil
}
