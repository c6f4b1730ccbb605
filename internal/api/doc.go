// Provides the authenticated client for the balena API.
//
// The endpoint is resolved once per run from the environment, the
// per-user configuration file, and a built-in default. Token credentials
// are exchanged eagerly via [Client.Login]; API keys are attached to
// every request instead. Each client owns a private state directory so
// concurrent runs never share cached session state.
//
// Example usage:
//
//	client, err := api.NewClient(api.Config{
//		Token:    token,
//		StateDir: stateDir,
//	})
//	if err != nil {
//		return err
//	}
//	if err := client.Login(ctx); err != nil {
//		return err
//	}
//
//	app, err := client.Application(ctx, 12345)
package api
