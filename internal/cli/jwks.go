package cli

import (
	"fmt"
	"net/http"
	"time"

	"gymsubs/internal/util"

	"github.com/spf13/cobra"
)

const defaultJWKSURL = "http://127.0.0.1:54321/auth/v1/.well-known/jwks.json"

func newJWKSCommand() *cobra.Command {
	var url, kid string
	cmd := &cobra.Command{
		Use:   "jwks-to-pem",
		Short: "Print an identity provider signing key as PEM for JWT_SECRET",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client := &http.Client{Timeout: 10 * time.Second}
			set, err := util.FetchJWKS(cmd.Context(), client, url)
			if err != nil {
				return err
			}
			key, err := set.Find(kid)
			if err != nil {
				return err
			}
			pub, err := key.PublicKey()
			if err != nil {
				return err
			}
			pemKey, err := util.EncodePublicKeyPEM(pub)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), pemKey)
			return err
		},
	}
	cmd.Flags().StringVar(&url, "url", defaultJWKSURL, "JWKS endpoint")
	cmd.Flags().StringVar(&kid, "kid", "", "Key id (default: first signing key)")
	return cmd
}
