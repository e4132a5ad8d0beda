package malloc

import "unsafe"

// The intrusive free list overlays the next-pointer on a free block's
// own first pointer-width bytes, per spec.md section 3 and the design
// note in section 9: the next-pointer is written only while the block
// sits on a free-list and never while the caller owns it. A nil next
// marks the tail.

func listNext(block unsafe.Pointer) unsafe.Pointer {
	return *(*unsafe.Pointer)(block)
}

func listSetNext(block, next unsafe.Pointer) {
	*(*unsafe.Pointer)(block) = next
}

// listPush pushes block onto the head of the list rooted at *head.
func listPush(head *unsafe.Pointer, block unsafe.Pointer) {
	listSetNext(block, *head)
	*head = block
}

// listPop removes and returns the head block, or nil if the list is
// empty.
func listPop(head *unsafe.Pointer) unsafe.Pointer {
	block := *head
	if block != nil {
		*head = listNext(block)
	}
	return block
}

// listDetach removes up to n blocks from the head of *head, links them
// into a chain in list order, and returns (chainHead, chainTail,
// detached count). The chain's tail next-pointer is nil.
func listDetach(head *unsafe.Pointer, n int) (chainHead, chainTail unsafe.Pointer, got int) {
	for got = 0; got < n && *head != nil; got++ {
		block := listPop(head)
		if chainHead == nil {
			chainHead = block
		} else {
			listSetNext(chainTail, block)
		}
		chainTail = block
	}
	if chainTail != nil {
		listSetNext(chainTail, nil)
	}
	return chainHead, chainTail, got
}

// listPrependChain splices a chain (head..tail) onto the front of
// *head, growing the list by count blocks.
func listPrependChain(head *unsafe.Pointer, chainHead, chainTail unsafe.Pointer) {
	if chainHead == nil {
		return
	}
	listSetNext(chainTail, *head)
	*head = chainHead
}
