package hooks

// handleEnd runs maintenance when the session closes. Reflection is the
// slow path (consolidation, decay, identity regen), so session end is the
// one moment it can run without anyone waiting on it.
func handleEnd(client *Client, input *HookInput) {
	if _, err := client.Post("/api/reflect", nil); err != nil {
		ExitError(err)
	}
}
