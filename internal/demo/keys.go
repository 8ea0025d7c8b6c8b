package demo

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-orm-cache/cache"
	"github.com/goliatone/go-orm-cache/ormcache"
	"github.com/goliatone/go-orm-cache/store/memstore"
)

type keysOptions struct {
	field string
}

// newKeysCmd lists the key templates registered for the demo table.
func (a *App) newKeysCmd() *cobra.Command {
	opts := &keysOptions{}

	cmd := &cobra.Command{
		Use:   "keys",
		Short: "List the cache key templates of the users table",
		Long: `List every list and count template registered for the users table.

Examples:
  # All templates
  ormcache-demo keys

  # Templates a write to "status" invalidates
  ormcache-demo keys --field status`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.listKeys(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.field, "field", "f", "", "Only show templates filtering on this field")

	return cmd
}

func (a *App) listKeys(opts *keysOptions) error {
	backend, err := cache.NewMemoryBackend(cache.DefaultConfig())
	if err != nil {
		return err
	}
	m, err := ormcache.NewManager(userSchema(), memstore.New("users", "id"), backend)
	if err != nil {
		return err
	}

	registry := m.Registry()
	templates := registry.Templates()
	if opts.field != "" {
		templates = registry.LookupRelated(opts.field)
		if len(templates) == 0 {
			return fmt.Errorf("no templates filter on field %q", opts.field)
		}
	}

	_, _ = fmt.Fprintf(a.stdout, "Namespace: %s\n", registry.Namespace())
	for _, t := range templates {
		order := t.Order().String()
		if order == "" {
			order = "-"
		}
		_, _ = fmt.Fprintf(a.stdout, "  %-6s fields=%-14s order=%-8s %s\n",
			t.Kind(), strings.Join(t.Fields(), ","), order, t.Prefix())
	}
	return nil
}
