package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/openvote/crypto-core/evlog"
	"github.com/openvote/crypto-core/group"
	"github.com/openvote/crypto-core/internal/randsrc"
)

func runGenParams(args []string) error {
	fs := pflag.NewFlagSet("gen-params", pflag.ContinueOnError)
	fs.Int("bits", group.MinBits, "bit-length of the safe prime p")
	fs.String("out", "cryptosystem.pvcryptosys", "output parameter file path")
	fs.String("config", "", "optional config file (toml/yaml/json)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	v, err := loadConfig(fs)
	if err != nil {
		return err
	}
	nbitsResolved := v.GetInt("bits")
	outResolved := v.GetString("out")

	log := evlog.Default().Module("cmd.gen-params")
	log.Info(fmt.Sprintf("generating %d-bit cryptosystem parameters", nbitsResolved))

	cs, err := group.GenerateParameters(nbitsResolved, randsrc.Default)
	if err != nil {
		return fmt.Errorf("generating parameters: %w", err)
	}

	f, err := os.Create(outResolved)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := group.WriteParameterFile(f, cs); err != nil {
		return fmt.Errorf("writing parameter file: %w", err)
	}

	fp := cs.Fingerprint()
	log.Info(fmt.Sprintf("wrote %s (fingerprint %x)", outResolved, fp))
	return nil
}
