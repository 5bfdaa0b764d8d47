// ABOUTME: CLI commands operating on named session files
// ABOUTME: open, migrate, info, delete, list, peers, resolve, export-string, seq

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/2389/coven-session/internal/seqno"
	"github.com/2389/coven-session/internal/session"
	"github.com/2389/coven-session/internal/store"
)

// withSession opens the session named by the first argument and closes it
// afterwards. Unless create is set, an absent session is ErrNotFound and no
// file is written.
func withSession(c *cli.Context, create bool, fn func(ctx context.Context, sess *session.Session) error) error {
	name := c.Args().First()
	if name == "" {
		return errors.New("session name is required")
	}
	mgr, err := managerFrom(c)
	if err != nil {
		return err
	}

	if !create {
		exists, err := mgr.Exists(name)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("session %q: %w", name, session.ErrNotFound)
		}
	}

	ctx := c.Context
	sess, err := mgr.Open(ctx, name)
	if err != nil {
		return err
	}
	defer sess.Close()

	return fn(ctx, sess)
}

func openCommand() *cli.Command {
	return &cli.Command{
		Name:      "open",
		Usage:     "Create or migrate a session file, then compact it",
		ArgsUsage: "<name>",
		Action: func(c *cli.Context) error {
			return withSession(c, true, func(ctx context.Context, sess *session.Session) error {
				version, err := sess.Store().Version(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(c.App.Writer, "%s %s (version %d)\n",
					color.GreenString(string(sess.Outcome())), sess.Path(), version)
				return nil
			})
		},
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:      "migrate",
		Usage:     "Bring an existing session file to the latest schema",
		ArgsUsage: "<name>",
		Action: func(c *cli.Context) error {
			return withSession(c, false, func(ctx context.Context, sess *session.Session) error {
				fmt.Fprintf(c.App.Writer, "%s: %d step(s) applied\n", sess.Name(), sess.StepsApplied())
				return nil
			})
		},
	}
}

func infoCommand() *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     "Show session metadata",
		ArgsUsage: "<name>",
		Action: func(c *cli.Context) error {
			return withSession(c, false, func(ctx context.Context, sess *session.Session) error {
				return printInfo(ctx, c.App.Writer, sess.Path(), sess.Store())
			})
		},
	}
}

// printInfo writes the session metadata table for st
func printInfo(ctx context.Context, out io.Writer, path string, st store.Store) error {
	version, err := st.Version(ctx)
	if err != nil {
		return err
	}
	info, err := st.SessionInfo(ctx)
	if err != nil {
		return err
	}
	peers, err := st.CountPeers(ctx)
	if err != nil {
		return err
	}

	yellow := color.New(color.FgYellow)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	yellow.Fprintf(w, "Session\t%s\n", path)
	fmt.Fprintf(w, "Version\t%d\n", version)
	fmt.Fprintf(w, "DC\t%d\n", info.DCID)
	fmt.Fprintf(w, "API ID\t%d\n", info.APIID)
	fmt.Fprintf(w, "Test mode\t%t\n", info.TestMode)
	fmt.Fprintf(w, "User ID\t%d\n", info.UserID)
	fmt.Fprintf(w, "Bot\t%t\n", info.IsBot)
	fmt.Fprintf(w, "Auth key\t%s\n", authKeyState(info.AuthKey))
	fmt.Fprintf(w, "Peers\t%d\n", peers)
	return w.Flush()
}

func authKeyState(key []byte) string {
	if len(key) == 0 {
		return "absent"
	}
	return fmt.Sprintf("%d bytes", len(key))
}

func deleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Remove a session file",
		ArgsUsage: "<name>",
		Action: func(c *cli.Context) error {
			mgr, err := managerFrom(c)
			if err != nil {
				return err
			}
			name := c.Args().First()
			if err := mgr.Delete(c.Context, name); err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "%s %s\n", color.RedString("deleted"), mgr.Path(name))
			return nil
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List session names in the working directory",
		Action: func(c *cli.Context) error {
			mgr, err := managerFrom(c)
			if err != nil {
				return err
			}
			names, err := mgr.List()
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(c.App.Writer, name)
			}
			return nil
		},
	}
}

func peersCommand() *cli.Command {
	return &cli.Command{
		Name:      "peers",
		Usage:     "List cached peers",
		ArgsUsage: "<name>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 50, Usage: "Maximum rows (0 for all)"},
		},
		Action: func(c *cli.Context) error {
			return withSession(c, false, func(ctx context.Context, sess *session.Session) error {
				return printPeers(ctx, c.App.Writer, sess.Store(), c.Int("limit"))
			})
		},
	}
}

func printPeers(ctx context.Context, out io.Writer, st store.Store, limit int) error {
	peers, err := st.ListPeers(ctx, limit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tUSERNAME\tPHONE\tUPDATED")
	for _, p := range peers {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			p.ID, p.Type, dash(p.Username), dash(p.PhoneNumber), p.LastUpdateOn.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func resolveCommand() *cli.Command {
	return &cli.Command{
		Name:      "resolve",
		Usage:     "Look up a cached peer by username",
		ArgsUsage: "<name> <username>",
		Action: func(c *cli.Context) error {
			username := strings.TrimPrefix(c.Args().Get(1), "@")
			if username == "" {
				return errors.New("username is required")
			}
			return withSession(c, false, func(ctx context.Context, sess *session.Session) error {
				return resolvePeer(ctx, c.App.Writer, sess.Store(), username)
			})
		},
	}
}

func resolvePeer(ctx context.Context, out io.Writer, st store.Store, username string) error {
	peer, err := st.GetPeerByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("resolving @%s: %w", username, err)
	}
	fmt.Fprintf(out, "%d %s\n", peer.ID, peer.Type)
	return nil
}

func exportStringCommand() *cli.Command {
	return &cli.Command{
		Name:      "export-string",
		Usage:     "Print the portable session string",
		ArgsUsage: "<name>",
		Action: func(c *cli.Context) error {
			return withSession(c, false, func(ctx context.Context, sess *session.Session) error {
				return printSessionString(ctx, c.App.Writer, sess.Store())
			})
		},
	}
}

func printSessionString(ctx context.Context, out io.Writer, st store.Store) error {
	info, err := st.SessionInfo(ctx)
	if err != nil {
		return err
	}
	encoded, err := store.EncodeSessionString(info)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, encoded)
	return err
}

func seqCommand() *cli.Command {
	return &cli.Command{
		Name:      "seq",
		Usage:     "Print sequence numbers for a message pattern (c=content, a=ack)",
		ArgsUsage: "<pattern>",
		Action: func(c *cli.Context) error {
			pattern := c.Args().First()
			if pattern == "" {
				return errors.New("pattern is required, e.g. acca")
			}

			m := metricsFrom(c)
			gen := seqno.New(seqno.WithObserver(m.SequenceIssued))

			out := make([]string, 0, len(pattern))
			for _, r := range pattern {
				switch r {
				case 'c', 'C':
					out = append(out, fmt.Sprint(gen.Next(true)))
				case 'a', 'A':
					out = append(out, fmt.Sprint(gen.Next(false)))
				default:
					return fmt.Errorf("unexpected %q in pattern; use c or a", r)
				}
			}
			fmt.Fprintln(c.App.Writer, strings.Join(out, " "))
			return nil
		},
	}
}
