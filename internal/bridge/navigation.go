package bridge

import "net/url"

// NavigationType is the cause of a navigation inside the web view.
type NavigationType int

const (
	NavigationOther NavigationType = iota
	NavigationLinkActivated
	NavigationFormSubmitted
	NavigationBackForward
	NavigationReload
	NavigationFormResubmitted
)

// NavigationAction describes a navigation the web view is about to take.
// TargetMainFrame is false for new windows and subordinate frames.
type NavigationAction struct {
	Type            NavigationType
	TargetMainFrame bool
	URL             *url.URL
}

// Policy is the decision for a navigation.
type Policy int

const (
	Allow Policy = iota
	Cancel
)

func (p Policy) String() string {
	if p == Cancel {
		return "cancel"
	}
	return "allow"
}

// DecideNavigation lets everything load in place except activated links
// that target another frame; those go to openExternal and are cancelled.
func DecideNavigation(action NavigationAction, openExternal func(*url.URL)) Policy {
	if action.Type != NavigationLinkActivated || action.TargetMainFrame || action.URL == nil {
		return Allow
	}
	if openExternal != nil {
		openExternal(action.URL)
	}
	return Cancel
}
