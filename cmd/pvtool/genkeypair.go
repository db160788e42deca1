package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/openvote/crypto-core/elgamal"
	"github.com/openvote/crypto-core/evlog"
	"github.com/openvote/crypto-core/group"
	"github.com/openvote/crypto-core/internal/randsrc"
)

func runGenKeyPair(args []string) error {
	fs := pflag.NewFlagSet("gen-keypair", pflag.ContinueOnError)
	fs.String("params", "cryptosystem.pvcryptosys", "cryptosystem parameter file")
	fs.String("pub-out", "key.pub", "output public key file path")
	fs.String("priv-out", "key.priv", "output private key file path")
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

	log := evlog.Default().Module("cmd.gen-keypair")
	kp, err := elgamal.GenerateKeyPair(cs, randsrc.Default)
	if err != nil {
		return fmt.Errorf("generating keypair: %w", err)
	}

	if err := writeFile(v.GetString("pub-out"), func(f *os.File) error {
		return elgamal.WritePublicKeyFile(f, kp.Public)
	}); err != nil {
		return err
	}
	if err := writeFile(v.GetString("priv-out"), func(f *os.File) error {
		return elgamal.WritePrivateKeyFile(f, kp.Private)
	}); err != nil {
		return err
	}

	log.Info(fmt.Sprintf("wrote %s and %s", v.GetString("pub-out"), v.GetString("priv-out")))
	return nil
}

func loadCryptosystem(path string) (*group.Cryptosystem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening parameter file: %w", err)
	}
	defer f.Close()
	return group.ReadParameterFile(f)
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return write(f)
}
