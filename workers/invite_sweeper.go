package workers

import (
	"log"
	"time"

	"github.com/kinship-app/kinshipbackend/repository"
)

// InviteSweeper periodically deactivates expired claim invites so stale codes
// stop resolving without waiting for someone to attempt a claim.
type InviteSweeper struct {
	inviteRepo repository.ClaimInviteRepository
	interval   time.Duration
	stop       chan struct{}
	done       chan struct{}
}

func NewInviteSweeper(inviteRepo repository.ClaimInviteRepository, interval time.Duration) *InviteSweeper {
	return &InviteSweeper{
		inviteRepo: inviteRepo,
		interval:   interval,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start runs the sweep loop in a background goroutine.
func (s *InviteSweeper) Start() {
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.sweep()
		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop signals the loop to exit and waits for it.
func (s *InviteSweeper) Stop() {
	close(s.stop)
	<-s.done
}

func (s *InviteSweeper) sweep() {
	swept, err := s.inviteRepo.DeactivateExpired(time.Now())
	if err != nil {
		log.Printf("invite sweeper: failed to deactivate expired invites: %v", err)
		return
	}
	if swept > 0 {
		log.Printf("invite sweeper: deactivated %d expired invite(s)", swept)
	}
}
