package ports

type Terminator interface {
	Terminate() error
}
