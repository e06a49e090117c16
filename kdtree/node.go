package kdtree

import "github.com/hupe1980/kdpool/pool"

// FlagInvalid marks a node as tombstoned.
const FlagInvalid uint32 = 1

const noChild = -1

func packLinks(left, right int) uint64 {
	return uint64(uint32(int32(left)))<<32 | uint64(uint32(int32(right)))
}

func unpackLeft(b uint64) int { return int(int32(uint32(b >> 32))) }

func unpackRight(b uint64) int { return int(int32(uint32(b))) }

func packData(flags uint32, dataIndex int) uint64 {
	return uint64(flags)<<32 | uint64(uint32(int32(dataIndex)))
}

func unpackFlags(b uint64) uint32 { return uint32(b >> 32) }

func unpackDataIndex(b uint64) int { return int(int32(uint32(b))) }

// Node is a flyweight view of one tree node.
type Node struct {
	ref *pool.Ref
	n   int
}

// Index returns the node index.
func (nd *Node) Index() int { return nd.ref.Index() }

// Position returns coordinate d of the node.
func (nd *Node) Position(d int) float64 { return nd.ref.Float(d) }

// Localize copies the node position into dst.
func (nd *Node) Localize(dst []float64) {
	copy(dst, nd.ref.Slots()[:nd.n])
}

// Left returns the left child index, or -1.
func (nd *Node) Left() int { return unpackLeft(nd.ref.Bits(nd.n)) }

// Right returns the right child index, or -1.
func (nd *Node) Right() int { return unpackRight(nd.ref.Bits(nd.n)) }

// DataIndex returns the index of the source object in the object pool.
func (nd *Node) DataIndex() int { return unpackDataIndex(nd.ref.Bits(nd.n + 1)) }

// Flags returns the node flags.
func (nd *Node) Flags() uint32 { return unpackFlags(nd.ref.Bits(nd.n + 1)) }

// IsValid reports whether the node is not tombstoned.
func (nd *Node) IsValid() bool { return nd.Flags()&FlagInvalid == 0 }

func (nd *Node) setLinks(left, right int) {
	nd.ref.SetBits(nd.n, packLinks(left, right))
}

func (nd *Node) setFlags(flags uint32) {
	nd.ref.SetBits(nd.n+1, packData(flags, nd.DataIndex()))
}
