package buildinfo

const Graffiti = " _____ _____ ______ _____ \n/  ___|_   _||  ___|_   _|\n\\ `--.  | |  | |_    | |  \n `--. \\ | |  |  _|   | |  \n/\\__/ /_| |_ | |     | |  \n\\____/ \\___/ \\_|     \\_/  \n\n"

var (
	BuildTag string = "v0.0.0"
	Name     string = "SIFT"
	Time     string = ""
)

type buildinfo struct{}

func (buildinfo) Tag() string {
	return BuildTag
}

func (buildinfo) Name() string {
	return Name
}

func (buildinfo) Time() string {
	return Time
}

var Info buildinfo
