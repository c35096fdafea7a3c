package hooks

import "encoding/json"

// handleStart injects the identity card and recent context into the new
// session. When no card exists yet the onboarding prompt goes in instead,
// so the assistant knows to ask for a name.
func handleStart(client *Client, input *HookInput) {
	body, _ := json.Marshal(map[string]string{"response": ""})
	data, err := client.Post("/api/identity", body)
	if err != nil {
		WriteSessionStartOutput("")
		return
	}

	var resp struct {
		Result string `json:"result"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		WriteSessionStartOutput("")
		return
	}

	WriteSessionStartOutput(resp.Result)
}
