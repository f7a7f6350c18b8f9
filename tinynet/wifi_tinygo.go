//go:build tinygo

package tinynet

import (
	"tinygo.org/x/drivers/netlink"
	"tinygo.org/x/drivers/netlink/probe"
)

func probeLink() netlink.Netlinker {
	link, _ := probe.Probe()
	return link
}
