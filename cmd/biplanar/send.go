package main

import (
	"fmt"
	"math/rand"
	"net"

	"github.com/pion/biplanar"
	"github.com/pion/biplanar/pkg/plane"
	"github.com/pion/biplanar/pkg/rtpraw"
	"github.com/spf13/cobra"
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send an image as RFC 4175 raw video over RTP/UDP",
	RunE:  runSend,
}

func init() {
	addSourceFlags(sendCmd)
	sendCmd.Flags().String("dest", "127.0.0.1:5004", "Destination UDP address")
	sendCmd.Flags().Int("mtu", rtpraw.DefaultMTU, "Maximum packet size")
	sendCmd.Flags().Uint8("payload-type", 96, "RTP payload type")
	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	dest, _ := cmd.Flags().GetString("dest")
	mtu, _ := cmd.Flags().GetInt("mtu")
	pt, _ := cmd.Flags().GetUint8("payload-type")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	src, err := loadSurface(cmd)
	if err != nil {
		return err
	}
	buf, err := biplanar.Encode(cfg, src)
	if err != nil {
		return fmt.Errorf("converting: %w", err)
	}
	defer buf.Close()

	v, err := buf.Lock(plane.LockReadOnly)
	if err != nil {
		return err
	}
	pkts, err := rtpraw.NewPacketizer(mtu, pt, rand.Uint32()).Packetize(v, rand.Uint32())
	v.Release()
	if err != nil {
		return err
	}

	addr, err := net.ResolveUDPAddr("udp", dest)
	if err != nil {
		return err
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	raw := make([]byte, mtu)
	for _, p := range pkts {
		n, err := p.MarshalTo(raw)
		if err != nil {
			return err
		}
		if _, err := conn.Write(raw[:n]); err != nil {
			return fmt.Errorf("sending: %w", err)
		}
	}

	fmt.Printf("Sent %d packets to %s\n", len(pkts), dest)
	return nil
}
