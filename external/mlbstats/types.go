package mlbstats

type idName struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type person struct {
	ID              int64  `json:"id"`
	FullName        string `json:"fullName"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	UseName         string `json:"useName"`
	Active          bool   `json:"active"`
	BirthCountry    string `json:"birthCountry"`
	CurrentTeam     idName `json:"currentTeam"`
	PrimaryPosition struct {
		Abbreviation string `json:"abbreviation"`
	} `json:"primaryPosition"`
}

type peopleEnvelope struct {
	People []person `json:"people"`
}

type statsEnvelope struct {
	Stats []struct {
		Group struct {
			DisplayName string `json:"displayName"`
		} `json:"group"`
		Splits []struct {
			Season string         `json:"season"`
			Stat   map[string]any `json:"stat"`
		} `json:"splits"`
	} `json:"stats"`
}

type scheduleSide struct {
	Team  idName `json:"team"`
	Score *int   `json:"score"`
}

type scheduleGame struct {
	GamePk   int64  `json:"gamePk"`
	GameDate string `json:"gameDate"`
	Status   struct {
		DetailedState string `json:"detailedState"`
	} `json:"status"`
	Teams struct {
		Away scheduleSide `json:"away"`
		Home scheduleSide `json:"home"`
	} `json:"teams"`
}

type scheduleEnvelope struct {
	Dates []struct {
		Date  string         `json:"date"`
		Games []scheduleGame `json:"games"`
	} `json:"dates"`
}

type boxScoreSide struct {
	Team      idName `json:"team"`
	TeamStats struct {
		Batting struct {
			Runs *int `json:"runs"`
		} `json:"batting"`
	} `json:"teamStats"`
	Players map[string]struct {
		Person struct {
			ID       int64  `json:"id"`
			FullName string `json:"fullName"`
		} `json:"person"`
	} `json:"players"`
}

type boxScoreEnvelope struct {
	Teams struct {
		Away boxScoreSide `json:"away"`
		Home boxScoreSide `json:"home"`
	} `json:"teams"`
}

type teamsEnvelope struct {
	Teams []struct {
		ID           int64  `json:"id"`
		Name         string `json:"name"`
		Abbreviation string `json:"abbreviation"`
		TeamName     string `json:"teamName"`
		LocationName string `json:"locationName"`
		Venue        idName `json:"venue"`
	} `json:"teams"`
}
