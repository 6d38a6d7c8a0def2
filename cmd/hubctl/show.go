package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/dalemusser/communityhub/internal/app/system/csvexport"
	"github.com/dalemusser/communityhub/internal/client/highlight"
	"github.com/dalemusser/communityhub/internal/domain/record"
)

// Match markers around highlighted text.
const (
	markOpen  = "[["
	markClose = "]]"
)

func cmdShow(ctx context.Context, c *cli, args []string) error {
	fs := c.flags("show")
	find := fs.String("find", "", "highlight every occurrence of this text")
	if err := fs.Parse(args); err != nil || fs.NArg() != 2 {
		return errUsage
	}
	kind, err := lookupKind(fs.Arg(0))
	if err != nil {
		return err
	}
	rec, err := c.api.Get(ctx, kind, fs.Arg(1))
	if err != nil {
		return err
	}

	body := renderRecord(rec)
	if strings.TrimSpace(*find) == "" {
		fmt.Fprint(c.out, body)
		return nil
	}

	f := highlight.NewFinder(body)
	f.SetTerm(*find)
	fmt.Fprint(c.out, markSegments(f.Segments()))
	switch n := f.Count(); n {
	case 0:
		fmt.Fprintf(c.out, "No matches for %q.\n", *find)
	case 1:
		fmt.Fprintf(c.out, "1 match for %q.\n", *find)
	default:
		fmt.Fprintf(c.out, "%d matches for %q.\n", n, *find)
	}
	return nil
}

// renderRecord prints one "Label: value" line per field.
func renderRecord(rec record.Record) string {
	var b strings.Builder
	for _, key := range rec.Keys() {
		v, _ := rec.Get(key)
		s, ok := v.(string)
		if !ok {
			s = csvexport.FormatValue(key, v)
		}
		fmt.Fprintf(&b, "%s: %s\n", csvexport.Humanize(key), s)
	}
	return b.String()
}

func markSegments(segs []highlight.Segment) string {
	var b strings.Builder
	for _, s := range segs {
		if s.Match {
			b.WriteString(markOpen + s.Text + markClose)
			continue
		}
		b.WriteString(s.Text)
	}
	return b.String()
}
