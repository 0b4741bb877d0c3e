package model

import "fmt"

// ViewKey names a top-level screen of the console.
type ViewKey string

const (
	ViewDashboard        ViewKey = "dashboard"
	ViewNotifications    ViewKey = "notifications"
	ViewEnquiries        ViewKey = "enquiries"
	ViewContactMessages  ViewKey = "contact-messages"
	ViewReportedProducts ViewKey = "reported-products"
	ViewUserFAQs         ViewKey = "user-faqs"
)

// Tab is a status partition inside a list view.
type Tab struct {
	Key      string
	Label    string
	Statuses []string
}

// ViewSpec describes a list-bearing view: which record kind it shows and
// how the records are partitioned into sub-tabs.
type ViewSpec struct {
	Key   ViewKey
	Title string
	Kind  RecordKind
	// Tabs is empty for untabbed views.
	Tabs []Tab
}

// Tabbed reports whether the view has sub-tabs.
func (v ViewSpec) Tabbed() bool {
	return len(v.Tabs) > 0
}

// DefaultTab returns the key of the tab shown on mount.
func (v ViewSpec) DefaultTab() string {
	if len(v.Tabs) == 0 {
		return ""
	}
	return v.Tabs[0].Key
}

// TabFor returns the tab a record with the given status belongs to.
// Untabbed views always answer "".
func (v ViewSpec) TabFor(status string) string {
	for _, t := range v.Tabs {
		for _, s := range t.Statuses {
			if s == status {
				return t.Key
			}
		}
	}
	return ""
}

// StatusFilter returns the value sent as the list endpoint's status
// parameter for the given tab.
func (v ViewSpec) StatusFilter(tab string) string {
	for _, t := range v.Tabs {
		if t.Key == tab && len(t.Statuses) > 0 {
			return t.Statuses[0]
		}
	}
	return ""
}

// TabIndex returns the position of tab in v.Tabs, or -1.
func (v ViewSpec) TabIndex(tab string) int {
	for i, t := range v.Tabs {
		if t.Key == tab {
			return i
		}
	}
	return -1
}

// ListViews are the views that own a reconciled list.
var ListViews = []ViewSpec{
	{
		Key:   ViewEnquiries,
		Title: "Enquiries",
		Kind:  KindEnquiry,
	},
	{
		Key:   ViewContactMessages,
		Title: "Contact Messages",
		Kind:  KindContactMessage,
		Tabs: []Tab{
			{Key: "pending", Label: "Pending", Statuses: []string{StatusPending}},
			{Key: "answered", Label: "Answered", Statuses: []string{StatusAnswered}},
		},
	},
	{
		Key:   ViewReportedProducts,
		Title: "Reported Products",
		Kind:  KindReportedProduct,
		Tabs: []Tab{
			{Key: "pending", Label: "Pending", Statuses: []string{StatusPending}},
			{Key: "resolved", Label: "Resolved", Statuses: []string{StatusResolved}},
		},
	},
	{
		Key:   ViewUserFAQs,
		Title: "User FAQs",
		Kind:  KindUserFAQ,
		Tabs: []Tab{
			{Key: "pending", Label: "Pending", Statuses: []string{StatusPending}},
			{Key: "accepted", Label: "Accepted", Statuses: []string{StatusAccepted}},
			{Key: "rejected", Label: "Rejected", Statuses: []string{StatusRejected}},
		},
	},
}

// LookupView returns the ViewSpec registered for key.
func LookupView(key ViewKey) (ViewSpec, bool) {
	for _, v := range ListViews {
		if v.Key == key {
			return v, true
		}
	}
	return ViewSpec{}, false
}

// route is one row of the notification dispatch table.
type route struct {
	view ViewKey
	kind RecordKind
}

// routes maps every notification type to its target view and record kind.
var routes = map[NotificationType]route{
	NotificationNewUserFAQ:         {view: ViewUserFAQs, kind: KindUserFAQ},
	NotificationNewEnquiry:         {view: ViewEnquiries, kind: KindEnquiry},
	NotificationNewContactMessage:  {view: ViewContactMessages, kind: KindContactMessage},
	NotificationNewReportedProduct: {view: ViewReportedProducts, kind: KindReportedProduct},
}

func init() {
	if err := validateRoutes(); err != nil {
		panic(err)
	}
}

// validateRoutes checks that every notification type has a route whose view
// is a registered list view showing the routed record kind.
func validateRoutes() error {
	for _, t := range NotificationTypes {
		r, ok := routes[t]
		if !ok {
			return fmt.Errorf("notification type %q has no route", t)
		}
		vs, ok := LookupView(r.view)
		if !ok {
			return fmt.Errorf("notification type %q routes to unknown view %q", t, r.view)
		}
		if vs.Kind != r.kind {
			return fmt.Errorf(
				"notification type %q routes kind %q to view %q showing %q",
				t, r.kind, r.view, vs.Kind,
			)
		}
	}
	return nil
}

// Route returns the view and record kind targeted by a notification type.
func Route(t NotificationType) (ViewKey, RecordKind, bool) {
	r, ok := routes[t]
	if !ok {
		return "", "", false
	}
	return r.view, r.kind, true
}

// NotificationTypeFor returns the notification type announcing a new record
// of kind.
func NotificationTypeFor(kind RecordKind) (NotificationType, bool) {
	for _, t := range NotificationTypes {
		if routes[t].kind == kind {
			return t, true
		}
	}
	return "", false
}
