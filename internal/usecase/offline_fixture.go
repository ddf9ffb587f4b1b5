package usecase

import "support-kb-ingest/internal/domain/model"

const OfflineDisplayID = "99999"

// OfflineFixture is the fixed ticket served in offline mode.
func OfflineFixture(caseID string) *model.TicketThread {
	return &model.TicketThread{
		Ticket: model.Ticket{
			ID:           caseID,
			DisplayID:    OfflineDisplayID,
			Subject:      "[TEST] Cannot connect to EC2 instance",
			Status:       model.TicketStatusResolved,
			ServiceCode:  "amazon-ec2",
			SeverityCode: "high",
			CreatedAt:    "2025-12-04T10:00:00Z",
			ResolvedAt:   "2025-12-04T15:00:00Z",
		},
		Communications: []model.Communication{
			{
				TicketID:    caseID,
				SubmittedBy: "user@example.com",
				Body:        "I cannot SSH into EC2 instance i-1234567890 in ap-northeast-2.",
				CreatedAt:   "2025-12-04T10:05:00Z",
			},
			{
				TicketID:    caseID,
				SubmittedBy: "support@aws.amazon.com",
				Body:        "Please check the inbound rules of the instance security group. Port 22 must be open for SSH.",
				CreatedAt:   "2025-12-04T11:00:00Z",
			},
			{
				TicketID:    caseID,
				SubmittedBy: "user@example.com",
				Body:        "After adding an SSH rule to the security group the connection works. Thanks!",
				CreatedAt:   "2025-12-04T14:30:00Z",
			},
		},
	}
}

// OfflineSummaryReply is the canned model reply used together with the fixture.
const OfflineSummaryReply = "```json\n" + `{
  "category": "technical",
  "service": "ec2",
  "question": "SSH connections to an EC2 instance in ap-northeast-2 fail.",
  "answer": "The security group did not allow inbound traffic on port 22.",
  "solution": "Add an inbound rule for TCP port 22 to the instance security group and retry the SSH connection.",
  "steps": [
    "Open the EC2 console and select the instance",
    "Edit the inbound rules of its security group",
    "Allow TCP port 22 from the client address",
    "Reconnect over SSH"
  ],
  "tags": ["ec2", "ssh", "security-group"],
  "user_messages": ["I cannot SSH into EC2 instance i-1234567890 in ap-northeast-2."],
  "support_messages": ["Please check the inbound rules of the instance security group. Port 22 must be open for SSH."]
}` + "\n```"
