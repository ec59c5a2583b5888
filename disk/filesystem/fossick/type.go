package fossick

type Filesystem string

func (fs_ Filesystem) String() string {
	return string(fs_)
}
