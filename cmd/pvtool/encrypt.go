package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/openvote/crypto-core/elgamal"
	"github.com/openvote/crypto-core/evlog"
	"github.com/openvote/crypto-core/internal/randsrc"
)

func runEncrypt(args []string) error {
	fs := pflag.NewFlagSet("encrypt", pflag.ContinueOnError)
	fs.String("params", "cryptosystem.pvcryptosys", "cryptosystem parameter file")
	fs.String("pub", "key.pub", "public key file")
	fs.String("in", "", "message file to encrypt")
	fs.String("out", "ciphertext.pvct", "output ciphertext file path")
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

	pubFile, err := os.Open(v.GetString("pub"))
	if err != nil {
		return fmt.Errorf("opening public key file: %w", err)
	}
	defer pubFile.Close()
	pk, err := elgamal.ReadPublicKeyFile(pubFile, cs)
	if err != nil {
		return fmt.Errorf("loading public key: %w", err)
	}

	msg, err := os.ReadFile(v.GetString("in"))
	if err != nil {
		return fmt.Errorf("reading message file: %w", err)
	}

	ct, err := pk.EncryptBytes(msg, randsrc.Default)
	if err != nil {
		return fmt.Errorf("encrypting: %w", err)
	}

	if err := writeFile(v.GetString("out"), func(f *os.File) error {
		return elgamal.WriteCiphertextFile(f, ct)
	}); err != nil {
		return err
	}

	log := evlog.Default().Module("cmd.encrypt")
	fp := ct.Fingerprint()
	log.Info(fmt.Sprintf("wrote %s (fingerprint %x)", v.GetString("out"), fp))
	return nil
}
