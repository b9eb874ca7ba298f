package graphapi

// Site is the subset of the Microsoft Graph site resource we care about.
type Site struct {
	Id          string `json:"id"`
	DisplayName string `json:"displayName"`
	WebUrl      string `json:"webUrl"`
}

type siteListResponse struct {
	Value []Site `json:"value"`
}
