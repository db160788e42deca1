// Command pvtool creates and uses the on-disk artifacts of a
// threshold-ElGamal election: it generates cryptosystem parameter files and
// keypairs, and encrypts and decrypts ciphertext files. It is the only executable surface of this module; the wire
// transport and election-management layer around it are out of scope.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/openvote/crypto-core/evlog"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	level := zerolog.InfoLevel
	if v, ok := os.LookupEnv("PVTOOL_LOG_LEVEL"); ok {
		if parsed, err := zerolog.ParseLevel(v); err == nil {
			level = parsed
		}
	}
	evlog.SetDefault(evlog.New(level))

	var err error
	switch os.Args[1] {
	case "gen-params":
		err = runGenParams(os.Args[2:])
	case "gen-keypair":
		err = runGenKeyPair(os.Args[2:])
	case "encrypt":
		err = runEncrypt(os.Args[2:])
	case "decrypt":
		err = runDecrypt(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "pvtool:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `pvtool <command> [flags]

Commands:
  gen-params    generate a .pvcryptosys parameter file
  gen-keypair   generate an ElGamal keypair under an existing parameter file
  encrypt       encrypt a message file under a public key
  decrypt       decrypt a ciphertext file under a private key`)
}

// loadConfig binds fs to viper so every subcommand accepts either CLI flags
// or a --config file (TOML/YAML/JSON, per viper's format-sniffing), the way
// the pack's viper-based CLIs do.
func loadConfig(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}
	if cfg, _ := fs.GetString("config"); cfg != "" {
		v.SetConfigFile(cfg)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}
	return v, nil
}
