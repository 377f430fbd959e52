package scraper

// NavState is where the navigation workflow currently is. It lives only for
// the duration of one request.
type NavState int

const (
	StateInit NavState = iota
	StatePageLoaded
	StateAppModalHandled
	StateLocationModalHandled
	StateLocationSet
	StateSearchPageOpen
	StateSearchInputReady
)

var stateNames = [...]string{
	StateInit:                 "init",
	StatePageLoaded:           "page_loaded",
	StateAppModalHandled:      "app_modal_handled",
	StateLocationModalHandled: "location_modal_handled",
	StateLocationSet:          "location_set",
	StateSearchPageOpen:       "search_page_open",
	StateSearchInputReady:     "search_input_ready",
}

func (s NavState) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}
