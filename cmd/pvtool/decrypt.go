package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/openvote/crypto-core/elgamal"
	"github.com/openvote/crypto-core/evlog"
)

func runDecrypt(args []string) error {
	fs := pflag.NewFlagSet("decrypt", pflag.ContinueOnError)
	fs.String("params", "cryptosystem.pvcryptosys", "cryptosystem parameter file")
	fs.String("priv", "key.priv", "private key file")
	fs.String("in", "ciphertext.pvct", "ciphertext file to decrypt")
	fs.String("out", "", "output plaintext file path (defaults to stdout)")
	fs.String("config", "", "optional config file (toml/yaml/json)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	v, err := loadConfig(fs)
	if err != nil {
		return err
	}

	cs, err := loadCryptosystem(v.GetString("params"))
	if err != nil {
		return err
	}

	privFile, err := os.Open(v.GetString("priv"))
	if err != nil {
		return fmt.Errorf("opening private key file: %w", err)
	}
	defer privFile.Close()
	sk, err := elgamal.ReadPrivateKeyFile(privFile, cs)
	if err != nil {
		return fmt.Errorf("loading private key: %w", err)
	}

	ctFile, err := os.Open(v.GetString("in"))
	if err != nil {
		return fmt.Errorf("opening ciphertext file: %w", err)
	}
	defer ctFile.Close()
	ct, err := elgamal.ReadCiphertextFile(ctFile, cs)
	if err != nil {
		return fmt.Errorf("loading ciphertext: %w", err)
	}

	msg, err := sk.DecryptToBytes(ct)
	if err != nil {
		return fmt.Errorf("decrypting: %w", err)
	}

	out := v.GetString("out")
	if out == "" {
		_, err = os.Stdout.Write(msg)
		return err
	}
	if err := os.WriteFile(out, msg, 0o600); err != nil {
		return err
	}
	evlog.Default().Module("cmd.decrypt").Info(fmt.Sprintf("wrote %s", out))
	return nil
}
