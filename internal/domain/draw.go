package domain

// Draw Model. Numbers always holds ciphertext produced under the owner's public key.
type Draw struct {
	ID            uint   `gorm:"primaryKey"`             // Primary key
	UserID        uint   `gorm:"index;not null"`         // Foreign key to the owning User
	Numbers       []byte `gorm:"not null"`               // Encrypted "n1 n2 n3 n4 n5 n6"
	BeenPlayed    bool   `gorm:"not null;default:false"` // Draw has been used in a round
	MatchesMaster bool   `gorm:"not null;default:false"` // Draw matched the winning draw
	MasterDraw    bool   `gorm:"not null;default:false"` // Draw is the admin's winning draw
	LotteryRound  int    `gorm:"not null;default:0"`     // Round the draw belongs to, 0 until played
}
