package main

import (
	"flag"
	"fmt"

	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip19"
	"github.com/sirupsen/logrus"
)

// keys generates a fresh key pair, or decodes an nsec/npub given with -decode,
// and prints both the hex and bech32 forms.
func main() {
	decode := flag.String("decode", "", "nsec or npub to decode instead of generating a new key")
	flag.Parse()

	if *decode != "" {
		prefix, value, err := nip19.Decode(*decode)
		if err != nil {
			logrus.Fatalf("failed to decode %s: %v", *decode, err)
		}
		hexKey, ok := value.(string)
		if !ok {
			logrus.Fatalf("%s does not hold a key", prefix)
		}
		fmt.Printf("%s: %s\n", prefix, hexKey)
		if prefix == "nsec" {
			pk, err := nostr.GetPublicKey(hexKey)
			if err != nil {
				logrus.Fatal(err)
			}
			npub, _ := nip19.EncodePublicKey(pk)
			fmt.Println("pk:  ", pk)
			fmt.Println("npub:", npub)
		}
		return
	}

	sk := nostr.GeneratePrivateKey()
	pk, err := nostr.GetPublicKey(sk)
	if err != nil {
		logrus.Fatal(err)
	}
	nsec, err := nip19.EncodePrivateKey(sk)
	if err != nil {
		logrus.Fatal(err)
	}
	npub, err := nip19.EncodePublicKey(pk)
	if err != nil {
		logrus.Fatal(err)
	}

	fmt.Println("sk:  ", sk)
	fmt.Println("pk:  ", pk)
	fmt.Println("nsec:", nsec)
	fmt.Println("npub:", npub)
}
