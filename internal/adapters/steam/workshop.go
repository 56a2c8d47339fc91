package steam

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	pairRE = regexp.MustCompile(`^"([^"]+)"\s+"([^"]*)"`)
	keyRE  = regexp.MustCompile(`^"([^"]+)"\s*(\{)?$`)
)

// Workshop enumerates installed items from a steamapps/workshop directory.
// The appworkshop_<appid>.acf manifest is authoritative; without one the
// numeric directories under content/<appid> are used.
type Workshop struct {
	Dir   string
	AppID int
}

func NewWorkshop(dir string, appID int) *Workshop { return &Workshop{Dir: dir, AppID: appID} }

func (w *Workshop) ListLocalIdentifiers(ctx context.Context) ([]string, error) {
	if w.Dir == "" {
		return nil, errors.New("workshop directory not configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	manifest := filepath.Join(w.Dir, fmt.Sprintf("appworkshop_%d.acf", w.AppID))
	data, err := os.ReadFile(manifest)
	switch {
	case err == nil:
		return installedItems(data)
	case errors.Is(err, os.ErrNotExist):
		return w.contentDirs()
	default:
		return nil, fmt.Errorf("read %s: %w", manifest, err)
	}
}

func (w *Workshop) contentDirs() ([]string, error) {
	root := filepath.Join(w.Dir, "content", strconv.Itoa(w.AppID))
	entries, err := os.ReadDir(root)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", root, err)
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() && isNumeric(e.Name()) {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// installedItems reads the keys of the WorkshopItemsInstalled block of a
// Valve KeyValues manifest.
func installedItems(data []byte) ([]string, error) {
	data = stripBOM(data)
	sc := bufio.NewScanner(bytes.NewReader(data))
	var (
		stack   []string
		pending string
		ids     = []string{}
		seen    = map[string]bool{}
	)
	push := func(name string) {
		if len(stack) > 0 && strings.EqualFold(stack[len(stack)-1], "WorkshopItemsInstalled") && isNumeric(name) && !seen[name] {
			seen[name] = true
			ids = append(ids, name)
		}
		stack = append(stack, name)
	}
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		switch {
		case line == "{":
			push(pending)
			pending = ""
		case line == "}":
			if len(stack) == 0 {
				return nil, errors.New("workshop manifest: unbalanced braces")
			}
			stack = stack[:len(stack)-1]
		case pairRE.MatchString(line):
			// scalar value, nothing to track
		default:
			m := keyRE.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			if m[2] == "{" {
				push(m[1])
			} else {
				pending = m[1]
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("workshop manifest: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

func isNumeric(s string) bool {
	_, err := strconv.ParseUint(s, 10, 64)
	return err == nil
}

func stripBOM(b []byte) []byte {
	bom := []byte{0xEF, 0xBB, 0xBF}
	if len(b) >= 3 && bytes.Equal(b[:3], bom) {
		return b[3:]
	}
	return b
}
