package urlbridge

// LifecycleSource is the script engine's notification surface.
type LifecycleSource interface {
	OnScriptRemoved(fn func(scriptID string))
	OnObjectRemoved(fn func(objectID string))
	OnScriptReset(fn func(scriptID string))
}

// Attach subscribes the bridge to src so endpoints never outlive the script
// or object that allocated them.
func (b *Bridge) Attach(src LifecycleSource) {
	src.OnScriptRemoved(b.ScriptRemoved)
	src.OnObjectRemoved(b.ObjectRemoved)
	src.OnScriptReset(b.ScriptReset)
}

// ScriptRemoved releases everything the script allocated.
func (b *Bridge) ScriptRemoved(scriptID string) {
	b.ReleaseAllOwnedBy(ScriptOwner(scriptID))
}

// ObjectRemoved releases everything allocated by scripts in the object.
func (b *Bridge) ObjectRemoved(objectID string) {
	b.ReleaseAllOwnedBy(ObjectOwner(objectID))
}

// ScriptReset is a full teardown; the script allocates again after reset.
func (b *Bridge) ScriptReset(scriptID string) {
	b.ReleaseAllOwnedBy(ScriptOwner(scriptID))
}
