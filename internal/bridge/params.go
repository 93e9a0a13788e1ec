package bridge

// Logical RPC surface. Method names and parameter shapes are the
// compatibility contract with the client and must not change.
const (
	MethodSchemes         = "filesystem/schemes"
	MethodWatch           = "filesystem/watch"
	MethodDidChangeFile   = "filesystem/onDidChangeFile"
	MethodStat            = "filesystem/stat"
	MethodReadDirectory   = "filesystem/readDirectory"
	MethodCreateDirectory = "filesystem/createDirectory"
	MethodReadFile        = "filesystem/readFile"
	MethodWriteFile       = "filesystem/writeFile"
	MethodDelete          = "filesystem/delete"
	MethodRename          = "filesystem/rename"
)

// URIParams addresses a single location.
type URIParams struct {
	URI string `json:"uri"`
}

// WatchParams registers a change subscription.
type WatchParams struct {
	URI       string   `json:"uri"`
	Recursive bool     `json:"recursive"`
	Excludes  []string `json:"excludes"`
}

// WriteFileParams carries a full-replace write.
type WriteFileParams struct {
	URI       string `json:"uri"`
	Content   string `json:"content"`
	Create    bool   `json:"create"`
	Overwrite bool   `json:"overwrite"`
}

// DeleteParams removes a location.
type DeleteParams struct {
	URI       string `json:"uri"`
	Recursive bool   `json:"recursive"`
}

// RenameParams moves a location.
type RenameParams struct {
	OldURI    string `json:"oldUri"`
	NewURI    string `json:"newUri"`
	Overwrite bool   `json:"overwrite"`
}

// LocationContent is the base64 text of a file's bytes. It is a transient
// transcoding artifact, never persisted.
type LocationContent struct {
	Content string `json:"content"`
}

// FileChangeNotification is the onDidChangeFile payload. Type carries the
// fixed wire constants 1=Changed, 2=Created, 3=Deleted.
type FileChangeNotification struct {
	Type int    `json:"type"`
	URI  string `json:"uri"`
}
