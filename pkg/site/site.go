package site

type Site struct {
	Id       int
	Uid      string
	Name     string
	Settings Settings
}

type Settings struct {
	Timezone    string
	Preferences Preferences
}

// Preferences are per-site display choices. They are loaded with the site at the start of
// every request and only change through an explicit save.
type Preferences struct {
	ShowHolidays bool
}
