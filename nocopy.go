package refptr

// noCopy flags types that must never be copied by value. go vet's copylocks
// check reports violations.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
