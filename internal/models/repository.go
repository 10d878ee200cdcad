package models

// * Repository is one normalized search hit. Timestamps stay as the API's
// * ISO-8601 strings and are empty when the payload omits them.
type Repository struct {
	Rank        int      `json:"rank"`
	RepoName    string   `json:"repo_name"`
	Owner       string   `json:"owner"`
	Name        string   `json:"name"`
	Stars       int      `json:"stars"`
	Forks       int      `json:"forks"`
	Issues      int      `json:"issues"`
	Language    string   `json:"language"`
	URL         string   `json:"url"`
	Description *string  `json:"description"`
	Topics      []string `json:"topics"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
	PushedAt    string   `json:"pushed_at"`
	Homepage    string   `json:"homepage"`
	Archived    bool     `json:"archived"`
}
