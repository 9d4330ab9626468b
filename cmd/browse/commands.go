package main

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/muraqqa/storefront/internal/catalog"
	"github.com/muraqqa/storefront/pkg/enums"
)

// addressBar is an in-memory Navigator that remembers every replacement.
type addressBar struct {
	mu       sync.Mutex
	query    url.Values
	replaced int
}

func newAddressBar(raw string) (*addressBar, error) {
	values, err := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	if err != nil {
		return nil, fmt.Errorf("parse query: %w", err)
	}
	return &addressBar{query: values}, nil
}

func (a *addressBar) Query() url.Values {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := url.Values{}
	for k, v := range a.query {
		out[k] = append([]string(nil), v...)
	}
	return out
}

func (a *addressBar) Replace(values url.Values) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.query = values
	a.replaced++
}

func (a *addressBar) String() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.query) == 0 {
		return "/catalog"
	}
	return "/catalog?" + a.query.Encode()
}

type errQuit struct{}

func (errQuit) Error() string { return "quit" }

const helpText = `commands:
  category <name|All>     medium <name|All>
  availability <all|available|sold>
  sort <newest|oldest|price_asc|price_desc>
  search <text>           page <n>
  price <min> <max>       year <min> <max>
  reset  refresh  url  help  quit`

// apply runs one command line against the store. Refresh is reported to the
// caller because it bypasses the store.
func apply(store *catalog.Store, line string) (refresh bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))

	switch cmd {
	case "category":
		store.SetCategory(optionalFacet(rest))
	case "medium":
		store.SetSecondaryTag(optionalFacet(rest))
	case "availability":
		availability, err := enums.ParseAvailability(rest)
		if err != nil {
			return false, err
		}
		store.SetAvailability(availability)
	case "sort":
		key, err := enums.ParseSortKey(rest)
		if err != nil {
			return false, err
		}
		store.SetSortKey(key)
	case "search":
		store.SetSearchText(rest)
	case "page":
		page, err := intArg(args, 0)
		if err != nil {
			return false, err
		}
		store.SetPage(int(page))
	case "price", "year":
		lo, err := intArg(args, 0)
		if err != nil {
			return false, err
		}
		hi, err := intArg(args, 1)
		if err != nil {
			return false, err
		}
		if cmd == "price" {
			store.SetPriceRange(lo, hi)
		} else {
			store.SetYearRange(lo, hi)
		}
	case "reset":
		store.Reset()
	case "refresh":
		return true, nil
	case "quit", "exit":
		return false, errQuit{}
	default:
		return false, fmt.Errorf("unknown command %q", cmd)
	}
	return false, nil
}

func optionalFacet(value string) *string {
	if value == "" || strings.EqualFold(value, "all") {
		return nil
	}
	return &value
}

func intArg(args []string, i int) (int64, error) {
	if len(args) <= i {
		return 0, fmt.Errorf("missing numeric argument")
	}
	n, err := strconv.ParseInt(args[i], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", args[i])
	}
	return n, nil
}

func render(state catalog.State) string {
	var b strings.Builder
	if state.Err != nil {
		fmt.Fprintf(&b, "error: %v (showing previous results; type refresh to retry)\n", state.Err)
	}
	meta := state.Page.Pagination
	fmt.Fprintf(&b, "page %d/%d, %d artworks\n", meta.Page, meta.TotalPages, meta.Total)
	for _, entry := range state.Visible() {
		status := "available"
		if !entry.Available() {
			status = "sold"
		}
		fmt.Fprintf(&b, "  %-32s %-20s %6d  %10d  %s\n", entry.Title, entry.Artist, entry.Year, entry.Price, status)
	}
	return b.String()
}
