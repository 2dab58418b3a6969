package model

// Upload is one ID document received with a submission. Content lives only
// for the lifetime of the request; nothing is retained after verification.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Content     []byte
}

// Submission is the raw parsed multipart form. Member and upload indices
// stay sparse until the registration service confirms full coverage of
// [0, teamSize).
type Submission struct {
	TeamSize   string
	HumanToken string
	Members    map[int]map[string]string
	IDCards    map[int]*Upload
}
